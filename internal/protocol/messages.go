package protocol

import "haven.world/internal/sim/world/kernel/model"

// PlayerPos is a connected player's last known position.
type PlayerPos struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// CURRENT_PLAYERS (server -> joining client)
type CurrentPlayersMsg struct {
	Type    string      `json:"type"`
	Players []PlayerPos `json:"players"`
}

// PLAYER_JOINED (server -> everyone else)
type PlayerJoinedMsg struct {
	Type string  `json:"type"`
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type PlayerLeftMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type PlayerSyncMsg struct {
	Type    string             `json:"type"`
	Payload model.PlayerRecord `json:"payload"`
}

type WorldStatePayload struct {
	Resources []model.Entity `json:"resources"`
	Version   uint64         `json:"version"`
}

type WorldStateMsg struct {
	Type    string            `json:"type"`
	Payload WorldStatePayload `json:"payload"`
}

type PlayerMovedMsg struct {
	Type string  `json:"type"`
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// RESOURCE_REMOVED and RESOURCE_PLACED carry the store version after the change so
// clients can spot gaps and ask for a fresh WORLD_STATE.
type ResourceRemovedMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Version uint64 `json:"version"`
}

type ResourcePlacedMsg struct {
	Type     string       `json:"type"`
	Resource model.Entity `json:"resource"`
	Version  uint64       `json:"version"`
}

type WalletUpdateMsg struct {
	Type    string                 `json:"type"`
	Payload map[model.Resource]int `json:"payload"`
}

type HarvestSuccessMsg struct {
	Type string                 `json:"type"`
	X    int                    `json:"x"`
	Y    int                    `json:"y"`
	Loot map[model.Resource]int `json:"loot"`
}

type CraftSuccessPayload struct {
	RecipeID  string                 `json:"recipe_id"`
	Item      model.Item             `json:"item"`
	Count     int                    `json:"count"`
	Wallet    map[model.Resource]int `json:"wallet"`
	Inventory map[model.Item]int     `json:"inventory"`
}

type CraftSuccessMsg struct {
	Type    string              `json:"type"`
	Payload CraftSuccessPayload `json:"payload"`
}

type PlaceSuccessPayload struct {
	Item      model.Item         `json:"item"`
	Resource  model.Entity       `json:"resource"`
	Inventory map[model.Item]int `json:"inventory"`
}

type PlaceSuccessMsg struct {
	Type    string              `json:"type"`
	Payload PlaceSuccessPayload `json:"payload"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type ChatMessageMsg struct {
	Type      string  `json:"type"`
	Sender    string  `json:"sender"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}
