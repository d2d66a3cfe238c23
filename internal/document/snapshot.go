package document

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidSnapshot wraps every snapshot parse/validation failure so callers
// can surface a single user-visible load error and keep their current
// in-memory state untouched.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// ParseSnapshot decodes and validates a persisted project snapshot.
func ParseSnapshot(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &p, nil
}

// MarshalSnapshot serializes a project for persistence.
func MarshalSnapshot(p *Project) ([]byte, error) {
	return json.Marshal(p)
}

// Validate checks structural invariants: kind enums are known, exactly one
// kind-specific attribute group is populated per item, and item ids are
// unique within each scene namespace. Missing assets are not an error here;
// they render as placeholders.
func (p *Project) Validate() error {
	if err := validateScene(&p.Canvas); err != nil {
		return fmt.Errorf("canvas: %w", err)
	}
	for i := range p.Timeline.Slides {
		s := &p.Timeline.Slides[i]
		switch s.Kind {
		case SlideImage, SlideVideo:
			if s.Scene != nil {
				return fmt.Errorf("slide %s: %s slide must not embed a scene", s.ID, s.Kind)
			}
		case SlideCollage:
			if s.Scene == nil {
				return fmt.Errorf("slide %s: collage slide missing scene", s.ID)
			}
			if err := validateScene(s.Scene); err != nil {
				return fmt.Errorf("slide %s: %w", s.ID, err)
			}
		default:
			return fmt.Errorf("slide %s: unknown kind %q", s.ID, s.Kind)
		}
		if s.TextOverlay != nil {
			if err := validateItem(s.TextOverlay); err != nil {
				return fmt.Errorf("slide %s overlay: %w", s.ID, err)
			}
		}
		for j := range s.Decorations {
			if err := validateItem(&s.Decorations[j]); err != nil {
				return fmt.Errorf("slide %s decoration: %w", s.ID, err)
			}
		}
	}
	return nil
}

func validateScene(sc *Scene) error {
	seen := make(map[string]struct{}, len(sc.Items))
	for i := range sc.Items {
		it := &sc.Items[i]
		if it.ID == "" {
			return fmt.Errorf("item %d: empty id", i)
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("duplicate item id %q", it.ID)
		}
		seen[it.ID] = struct{}{}
		if err := validateItem(it); err != nil {
			return err
		}
	}
	return nil
}

func validateItem(it *VisualItem) error {
	groups := 0
	if it.Image != nil {
		groups++
	}
	if it.Text != nil {
		groups++
	}
	if it.Decoration != nil {
		groups++
	}
	if groups != 1 {
		return fmt.Errorf("item %s: expected exactly one attribute group, got %d", it.ID, groups)
	}

	switch it.Kind {
	case ItemImage:
		if it.Image == nil {
			return fmt.Errorf("item %s: kind Image without image attributes", it.ID)
		}
	case ItemText:
		if it.Text == nil {
			return fmt.Errorf("item %s: kind Text without text attributes", it.ID)
		}
	case ItemDecoration:
		if it.Decoration == nil {
			return fmt.Errorf("item %s: kind Decoration without decoration attributes", it.ID)
		}
		if !knownAnimation(it.Decoration.Animation) {
			return fmt.Errorf("item %s: unknown animation %q", it.ID, it.Decoration.Animation)
		}
	default:
		return fmt.Errorf("item %s: unknown kind %q", it.ID, it.Kind)
	}

	if it.Scale < MinScale {
		it.Scale = MinScale
	}
	return nil
}

func knownAnimation(a Animation) bool {
	for _, known := range Animations {
		if a == known {
			return true
		}
	}
	return false
}
