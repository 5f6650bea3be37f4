package framepresenter

import (
	"context"

	"github.com/park285/nuclear-chess/internal/display"
)

// Presenter delivers frames to the local screen and the remote mirror
// without coupling either to the host loop.
type Presenter struct {
	show    func(display.Frame)
	publish func(context.Context, display.Frame)
}

func NewPresenter(show func(display.Frame), publish func(context.Context, display.Frame)) *Presenter {
	return &Presenter{show: show, publish: publish}
}

func (p *Presenter) Frame(ctx context.Context, f display.Frame) {
	if p == nil {
		return
	}
	if p.show != nil {
		p.show(f)
	}
	if p.publish != nil {
		p.publish(ctx, f)
	}
}
