package sample

import (
	"fmt"
	"strings"

	"github.com/kraklabs/ctxforge/pkg/helpers"
)

type Widget struct {
	Name string
	Tags []string
}

type widgetStore interface {
	Get(id string) (*Widget, error)
}

func Build(name string) *Widget {
	return &Widget{Name: strings.ToUpper(name)}
}

func Describe(w *Widget) string {
	helpers.Touch(w.Name)
	return fmt.Sprintf("widget: %s", w.Name)
}

func (w *Widget) String() string {
	return Describe(w)
}

func consume(store widgetStore, id string) {
	item, err := store.Get(id)
	if err != nil {
		return
	}
	_ = item.(*Widget)
}
