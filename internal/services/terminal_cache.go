package services

import (
	"errors"
	"fmt"
	"time"

	"rideaxis/internal/models"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const activeTerminalsKey = "terminals:active"

// TerminalCache keeps the terminal list in memory. It changes only when an
// operator seeds terminals, so a short TTL is enough.
type TerminalCache struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
}

func NewTerminalCache(db *gorm.DB, ttl time.Duration) *TerminalCache {
	return &TerminalCache{
		db:    db,
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Active lists active terminals ordered by name.
func (c *TerminalCache) Active() ([]models.Terminal, error) {
	if cached, found := c.cache.Get(activeTerminalsKey); found {
		if terminals, ok := cached.([]models.Terminal); ok {
			return terminals, nil
		}
	}

	var terminals []models.Terminal
	if err := c.db.Where("is_active = ?", true).Order("name").Find(&terminals).Error; err != nil {
		return nil, fmt.Errorf("load terminals: %w", err)
	}
	c.cache.Set(activeTerminalsKey, terminals, c.ttl)
	return terminals, nil
}

func (c *TerminalCache) Get(id uint) (*models.Terminal, error) {
	key := fmt.Sprintf("terminal:%d", id)
	if cached, found := c.cache.Get(key); found {
		if terminal, ok := cached.(models.Terminal); ok {
			return &terminal, nil
		}
	}

	var terminal models.Terminal
	err := c.db.First(&terminal, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTerminalNotFound
	}
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, terminal, c.ttl)
	return &terminal, nil
}

func (c *TerminalCache) Invalidate() {
	c.cache.Flush()
}
