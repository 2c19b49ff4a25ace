package taskrepo

import (
	"errors"

	"github.com/jrsteele09/go-taskboard/model"
)

var ErrNotFound = errors.New("task not found")

type Repo interface {
	Upsert(task model.Task) error
	Get(id string) (model.Task, error)
	Delete(id string) error
	List() ([]model.Task, error)
}
