package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/photocore/internal/filter"
)

// ErrNotFound is returned when an element id is not part of the session.
var ErrNotFound = errors.New("element not found")

const maxRecentEdits = 10

// State is an immutable copy of everything needed to render a session.
type State struct {
	Image    string                `json:"image,omitempty"`
	FilterID string                `json:"filter"`
	Adjust   filter.AdjustSettings `json:"adjust"`
	Texts    []TextElement         `json:"texts"`
	Stickers []StickerElement      `json:"stickers"`
}

// SortedStickers returns the stickers ordered by ZIndex. Equal indices keep
// their list order.
func (s State) SortedStickers() []StickerElement {
	out := append([]StickerElement(nil), s.Stickers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// Session is the edit state of one image. It is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	image    string
	filterID string
	adjust   filter.AdjustSettings
	texts    []TextElement
	stickers []StickerElement
	nextZ    int
	recent   []string
}

// New returns an empty session with the identity filter.
func New() *Session {
	return &Session{filterID: filter.NoneID}
}

// SetImage selects a new source image and resets adjustments and overlays.
// The active filter is kept.
func (s *Session) SetImage(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = ref
	s.adjust = filter.AdjustSettings{}
	s.texts = nil
	s.stickers = nil
	s.nextZ = 0
}

// SetFilter selects the active filter preset.
func (s *Session) SetFilter(id string) error {
	if _, ok := filter.Lookup(id); !ok {
		return fmt.Errorf("unknown filter %q", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = filter.NoneID
	}
	s.filterID = id
	return nil
}

// SetAdjust replaces the adjustment sliders.
func (s *Session) SetAdjust(a filter.AdjustSettings) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjust = a
	return nil
}

// ResetAdjust returns every slider to zero.
func (s *Session) ResetAdjust() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjust = filter.AdjustSettings{}
}

// AddText appends t and returns its id. An empty id is replaced by a new UUID.
func (s *Session) AddText(t TextElement) string {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, t.clone())
	return t.ID
}

// UpdateText applies fn to the text element with the given id.
func (s *Session) UpdateText(id string, fn func(*TextElement)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.texts {
		if s.texts[i].ID == id {
			t := s.texts[i].clone()
			fn(&t)
			t.ID = id
			s.texts[i] = t
			return nil
		}
	}
	return fmt.Errorf("text %s: %w", id, ErrNotFound)
}

// DeleteText removes the text element with the given id.
func (s *Session) DeleteText(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.texts {
		if s.texts[i].ID == id {
			s.texts = append(s.texts[:i], s.texts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("text %s: %w", id, ErrNotFound)
}

// ClearTexts removes every text element.
func (s *Session) ClearTexts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = nil
}

// AddSticker appends st on top of every existing sticker and returns its id.
func (s *Session) AddSticker(st StickerElement) string {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextZ++
	st.ZIndex = s.nextZ
	s.stickers = append(s.stickers, st)
	return st.ID
}

// UpdateSticker applies fn to the sticker with the given id.
func (s *Session) UpdateSticker(id string, fn func(*StickerElement)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.stickers {
		if s.stickers[i].ID == id {
			st := s.stickers[i]
			fn(&st)
			st.ID = id
			s.stickers[i] = st
			if st.ZIndex > s.nextZ {
				s.nextZ = st.ZIndex
			}
			return nil
		}
	}
	return fmt.Errorf("sticker %s: %w", id, ErrNotFound)
}

// DeleteSticker removes the sticker with the given id.
func (s *Session) DeleteSticker(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.stickers {
		if s.stickers[i].ID == id {
			s.stickers = append(s.stickers[:i], s.stickers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("sticker %s: %w", id, ErrNotFound)
}

// ClearStickers removes every sticker.
func (s *Session) ClearStickers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stickers = nil
}

// AddRecentEdit records a saved output, most recent first, without
// duplicates and capped at ten entries.
func (s *Session) AddRecentEdit(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{ref}
	for _, r := range s.recent {
		if r != ref {
			out = append(out, r)
		}
	}
	if len(out) > maxRecentEdits {
		out = out[:maxRecentEdits]
	}
	s.recent = out
}

// RecentEdits returns the recorded outputs, most recent first.
func (s *Session) RecentEdits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.recent...)
}

// Snapshot returns a deep copy of the render state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Image:    s.image,
		FilterID: s.filterID,
		Adjust:   s.adjust,
		Texts:    make([]TextElement, len(s.texts)),
		Stickers: append([]StickerElement(nil), s.stickers...),
	}
	for i, t := range s.texts {
		st.Texts[i] = t.clone()
	}
	return st
}
