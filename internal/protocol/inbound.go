package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownType  = errors.New("unknown message type")
	ErrMissingField = errors.New("missing field")
	ErrBadField     = errors.New("bad field")
)

// Inbound is a decoded client message.
type Inbound interface {
	MessageType() string
}

type PlayerMove struct{ X, Y float64 }

type Harvest struct {
	ResourceID string
	Tool       string
}

type Craft struct{ RecipeID string }

type Place struct {
	X, Y   int
	ItemID string
}

// Build is the legacy placement path: it spends wallet resources instead of an
// inventory item.
type Build struct {
	X, Y   int
	ItemID string
}

type RequestWorldState struct{}

type Chat struct{ Text string }

func (PlayerMove) MessageType() string        { return TypePlayerMove }
func (Harvest) MessageType() string           { return TypeActionHarvest }
func (Craft) MessageType() string             { return TypeActionCraft }
func (Place) MessageType() string             { return TypeActionPlace }
func (Build) MessageType() string             { return TypePlayerBuild }
func (RequestWorldState) MessageType() string { return TypeRequestWorldState }
func (Chat) MessageType() string              { return TypePlayerChat }

type inboundFields struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	ResourceID *string  `json:"resource_id"`
	Tool       *string  `json:"tool"`
	RecipeID   *string  `json:"recipeId"`
	ItemID     *string  `json:"itemId"`
	Text       *string  `json:"text"`
}

// Decode parses one text frame into a concrete message.
func Decode(b []byte) (Inbound, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, err
	}
	src := b
	if p := bytes.TrimSpace(base.Payload); len(p) > 0 && !bytes.Equal(p, []byte("null")) {
		src = p
	}
	var f inboundFields
	if err := json.Unmarshal(src, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", base.Type, err)
	}

	switch base.Type {
	case TypePlayerMove:
		if f.X == nil || f.Y == nil {
			return nil, missing(base.Type, "x/y")
		}
		if !finite(*f.X) || !finite(*f.Y) {
			return nil, fmt.Errorf("%s: %w: x/y", base.Type, ErrBadField)
		}
		return PlayerMove{X: *f.X, Y: *f.Y}, nil
	case TypeActionHarvest:
		if f.ResourceID == nil || *f.ResourceID == "" {
			return nil, missing(base.Type, "resource_id")
		}
		m := Harvest{ResourceID: *f.ResourceID}
		if f.Tool != nil {
			m.Tool = *f.Tool
		}
		return m, nil
	case TypeActionCraft:
		if f.RecipeID == nil || *f.RecipeID == "" {
			return nil, missing(base.Type, "recipeId")
		}
		return Craft{RecipeID: *f.RecipeID}, nil
	case TypeActionPlace, TypePlayerBuild:
		x, y, err := cellFields(base.Type, f)
		if err != nil {
			return nil, err
		}
		if f.ItemID == nil || *f.ItemID == "" {
			return nil, missing(base.Type, "itemId")
		}
		if base.Type == TypePlayerBuild {
			return Build{X: x, Y: y, ItemID: *f.ItemID}, nil
		}
		return Place{X: x, Y: y, ItemID: *f.ItemID}, nil
	case TypeRequestWorldState:
		return RequestWorldState{}, nil
	case TypePlayerChat:
		if f.Text == nil {
			return nil, missing(base.Type, "text")
		}
		return Chat{Text: *f.Text}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, base.Type)
	}
}

func cellFields(typ string, f inboundFields) (int, int, error) {
	if f.X == nil || f.Y == nil {
		return 0, 0, missing(typ, "x/y")
	}
	x, y := *f.X, *f.Y
	if !finite(x) || !finite(y) || x != math.Trunc(x) || y != math.Trunc(y) {
		return 0, 0, fmt.Errorf("%s: %w: x/y must be integers", typ, ErrBadField)
	}
	if math.Abs(x) > math.MaxInt32 || math.Abs(y) > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%s: %w: x/y out of range", typ, ErrBadField)
	}
	return int(x), int(y), nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func missing(typ, field string) error {
	return fmt.Errorf("%s: %w: %s", typ, ErrMissingField, field)
}

// Encode renders m the way browser clients send it: {"type": ..., "payload": {...}}.
func Encode(m Inbound) ([]byte, error) {
	payload := map[string]any{}
	switch v := m.(type) {
	case PlayerMove:
		payload["x"], payload["y"] = v.X, v.Y
	case Harvest:
		payload["resource_id"] = v.ResourceID
		if v.Tool != "" {
			payload["tool"] = v.Tool
		}
	case Craft:
		payload["recipeId"] = v.RecipeID
	case Place:
		payload["x"], payload["y"], payload["itemId"] = v.X, v.Y, v.ItemID
	case Build:
		payload["x"], payload["y"], payload["itemId"] = v.X, v.Y, v.ItemID
	case RequestWorldState:
	case Chat:
		payload["text"] = v.Text
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
	return json.Marshal(struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}{Type: m.MessageType(), Payload: payload})
}
