package models

import "github.com/google/uuid"

// assignID fills a nil primary key so inserts behave the same on every driver.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
