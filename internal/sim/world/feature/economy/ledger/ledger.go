// Package ledger owns every player's wallet, inventory and last known position.
// It is not safe for concurrent use; the world goroutine owns it.
package ledger

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"haven.world/internal/logging"
	"haven.world/internal/sim/world/feature/economy/inventory"
	"haven.world/internal/sim/world/kernel/model"
)

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrInsufficient  = errors.New("insufficient balance")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Persister stores the whole ledger as one unit. LoadPlayers returns an empty map and
// no error when nothing has been saved yet.
type Persister interface {
	LoadPlayers() (map[string]model.PlayerRecord, error)
	SavePlayers(players map[string]model.PlayerRecord) error
}

type Config struct {
	SpawnX, SpawnY float64
	StartingWallet map[model.Resource]int
}

type Ledger struct {
	cfg     Config
	players map[string]*model.PlayerRecord
	dirty   bool

	persister Persister
	log       logrus.FieldLogger
}

func Open(cfg Config, p Persister, log logrus.FieldLogger) (*Ledger, error) {
	if log == nil {
		log = logging.Discard()
	}
	l := &Ledger{
		cfg:       cfg,
		players:   map[string]*model.PlayerRecord{},
		persister: p,
		log:       log,
	}
	if p == nil {
		return l, nil
	}
	loaded, err := p.LoadPlayers()
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	for id, rec := range loaded {
		rec := normalize(id, rec)
		l.players[id] = &rec
	}
	log.WithField("players", len(l.players)).Info("ledger loaded")
	return l, nil
}

func normalize(id string, rec model.PlayerRecord) model.PlayerRecord {
	rec = rec.Clone()
	rec.ID = id
	for k, v := range rec.Wallet {
		if v < 0 {
			rec.Wallet[k] = 0
		}
	}
	for k, v := range rec.Inventory {
		if v <= 0 {
			delete(rec.Inventory, k)
		}
	}
	return rec
}

func (l *Ledger) Len() int { return len(l.players) }

func (l *Ledger) Get(id string) (model.PlayerRecord, bool) {
	p, ok := l.players[id]
	if !ok {
		return model.PlayerRecord{}, false
	}
	return p.Clone(), true
}

// GetOrCreate returns the record for id, creating it at the spawn point with the
// starting wallet on first sight.
func (l *Ledger) GetOrCreate(id string) model.PlayerRecord {
	if p, ok := l.players[id]; ok {
		return p.Clone()
	}
	p := &model.PlayerRecord{
		ID:        id,
		X:         l.cfg.SpawnX,
		Y:         l.cfg.SpawnY,
		Wallet:    map[model.Resource]int{},
		Inventory: map[model.Item]int{},
	}
	for k, v := range l.cfg.StartingWallet {
		p.Wallet[k] = v
	}
	l.players[id] = p
	l.save()
	return p.Clone()
}

// Credit adds delta to one wallet entry. A negative delta is a debit and fails, leaving
// the wallet untouched, if it would go below zero.
func (l *Ledger) Credit(id string, res model.Resource, delta int) error {
	p, ok := l.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.Wallet[res]+delta < 0 {
		return ErrInsufficient
	}
	if delta == 0 {
		return nil
	}
	p.Wallet[res] += delta
	l.save()
	return nil
}

// ConsumeMany debits every cost or none of them.
func (l *Ledger) ConsumeMany(id string, costs map[model.Resource]int) error {
	p, ok := l.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	for _, c := range costs {
		if c < 0 {
			return ErrInvalidAmount
		}
	}
	if !inventory.Has(p.Wallet, costs) {
		return ErrInsufficient
	}
	for res, c := range costs {
		p.Wallet[res] -= c
	}
	l.save()
	return nil
}

// CreditMany adds every amount. Used to refund a ConsumeMany whose action failed.
func (l *Ledger) CreditMany(id string, amounts map[model.Resource]int) error {
	p, ok := l.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	for _, c := range amounts {
		if c < 0 {
			return ErrInvalidAmount
		}
	}
	for res, c := range amounts {
		p.Wallet[res] += c
	}
	l.save()
	return nil
}

func (l *Ledger) AddItem(id string, item model.Item, n int) error {
	p, ok := l.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if n <= 0 || item == "" {
		return ErrInvalidAmount
	}
	inventory.AddItems(p.Inventory, map[model.Item]int{item: n})
	l.save()
	return nil
}

// ConsumeItem removes n of item, dropping the key at zero.
func (l *Ledger) ConsumeItem(id string, item model.Item, n int) error {
	p, ok := l.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if n <= 0 {
		return ErrInvalidAmount
	}
	want := map[model.Item]int{item: n}
	if !inventory.Has(p.Inventory, want) {
		return ErrInsufficient
	}
	inventory.DeductItems(p.Inventory, want)
	l.save()
	return nil
}

// SetPosition records the last reported position. Positions are written lazily: the
// ledger is only marked dirty.
func (l *Ledger) SetPosition(id string, x, y float64) error {
	p, ok := l.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.X, p.Y = x, y
	l.dirty = true
	return nil
}

func (l *Ledger) Dirty() bool { return l.dirty }

// Flush writes the ledger if positions changed since the last write.
func (l *Ledger) Flush() error {
	if !l.dirty || l.persister == nil {
		return nil
	}
	if err := l.persister.SavePlayers(l.export()); err != nil {
		return fmt.Errorf("save players: %w", err)
	}
	l.dirty = false
	return nil
}

func (l *Ledger) save() {
	l.dirty = true
	if err := l.Flush(); err != nil {
		l.log.WithError(err).Error("persist ledger")
	}
}

func (l *Ledger) export() map[string]model.PlayerRecord {
	out := make(map[string]model.PlayerRecord, len(l.players))
	for id, p := range l.players {
		out[id] = p.Clone()
	}
	return out
}
