package api

import "errors"

// Validator - интерфейс, который могут реализовать входящие DTO.
// Декодер запросов вызывает Validate автоматически после Unmarshal.
type Validator interface {
	Validate() error
}

func (r JoinRequest) Validate() error {
	if r.UserName == "" {
		return errors.New("userName cannot be empty")
	}
	return nil
}

func (r ActionRequest) Validate() error {
	if r.Move == nil {
		return errors.New("move field is required")
	}
	switch *r.Move {
	case "", "L", "R", "U", "D":
		return nil
	}
	return errors.New(`move must be "L", "R", "U", "D" or ""`)
}

func (r TickRequest) Validate() error {
	if r.TimeDelta == nil {
		return errors.New("timeDelta field is required")
	}
	if *r.TimeDelta < 0 {
		return errors.New("timeDelta must be non-negative")
	}
	return nil
}
