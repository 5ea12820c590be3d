package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionBusted    SessionStatus = "busted"
	SessionCashedOut SessionStatus = "cashed_out"
)

// PositionList is a set of grid positions stored as a canonical JSON
// int array. It validates on scan so a malformed row fails loudly
// instead of being format-sniffed at use sites.
type PositionList []int

func (p PositionList) Value() (driver.Value, error) {
	if p == nil {
		p = PositionList{}
	}

	return json.Marshal(p)
}

func (p *PositionList) Scan(src interface{}) error {
	var raw []byte

	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*p = PositionList{}
		return nil
	default:
		return fmt.Errorf("model.PositionList: cannot scan %T", src)
	}

	return json.Unmarshal(raw, p)
}

func (p PositionList) Contains(pos int) bool {
	for _, v := range p {
		if v == pos {
			return true
		}
	}

	return false
}

// Session is one private mines game. At most one row per user is Active.
type Session struct {
	ID        int64         `json:"id"`
	UUID      uuid.UUID     `json:"uuid"`
	UserID    int64         `json:"user_id"`
	Status    SessionStatus `json:"status"`
	Stake     int64         `json:"stake"`
	Hazards   PositionList  `json:"-"` // hidden until the session ends
	Revealed  PositionList  `json:"revealed"`
	Nonce     int64         `json:"nonce"`
	LedgerID  int64         `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
	EndedAt   *time.Time    `json:"ended_at"`
}
