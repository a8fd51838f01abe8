package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Member struct {
	Name   string `json:"name" validate:"required"`
	Leader bool   `json:"leader"`
}

// Members is stored as a JSON column.
type Members []Member

func (m Members) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Members) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Members", src)
	}
}

type Team struct {
	ID         string `db:"id" json:"id" validate:"required"`
	Name       string `db:"name" json:"name" validate:"required"`
	Club       string `db:"club" json:"club"`
	University string `db:"university" json:"university"`
	// Competition keeps whatever identifier form was captured at
	// registration time. Canonicalize before comparing.
	Competition  string  `db:"competition" json:"competition"`
	Members      Members `db:"members" json:"members"`
	DisplayOrder int     `db:"display_order" json:"display_order" validate:"gte=0"`
}

func (t *Team) Validate() error {
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return err
	}
	leaders := 0
	for _, m := range t.Members {
		if m.Leader {
			leaders++
		}
	}
	if leaders > 1 {
		return fmt.Errorf("team %s has %d leaders, at most one allowed", t.ID, leaders)
	}
	return nil
}
