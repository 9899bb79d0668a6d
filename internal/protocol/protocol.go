package protocol

import "encoding/json"

// Version is the wire protocol revision; tuning.yaml must name the same one.
const Version = "1"

// Inbound message types.
const (
	TypePlayerMove        = "PLAYER_MOVE"
	TypeActionHarvest     = "ACTION_HARVEST"
	TypeActionCraft       = "ACTION_CRAFT"
	TypeActionPlace       = "ACTION_PLACE"
	TypePlayerBuild       = "PLAYER_BUILD"
	TypeRequestWorldState = "REQUEST_WORLD_STATE"
	TypePlayerChat        = "PLAYER_CHAT"
)

// Outbound message types.
const (
	TypeCurrentPlayers  = "CURRENT_PLAYERS"
	TypePlayerJoined    = "PLAYER_JOINED"
	TypePlayerLeft      = "PLAYER_LEFT"
	TypePlayerSync      = "PLAYER_SYNC"
	TypeWorldState      = "WORLD_STATE"
	TypePlayerMoved     = "PLAYER_MOVED"
	TypeResourceRemoved = "RESOURCE_REMOVED"
	TypeResourcePlaced  = "RESOURCE_PLACED"
	TypeWalletUpdate    = "WALLET_UPDATE"
	TypeHarvestSuccess  = "HARVEST_SUCCESS"
	TypeCraftSuccess    = "CRAFT_SUCCESS"
	TypePlaceSuccess    = "PLACE_SUCCESS"
	TypeError           = "ERROR"
	TypeChatMessage     = "CHAT_MESSAGE"
)

// BaseMessage lets us route unknown JSON messages by type. Clients may nest their
// fields under "payload" or send them at the top level.
type BaseMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
