package resources

import (
	"fmt"
	"image"
	"sync"

	"github.com/milk9111/animview/anm"
)

// Result is the outcome of one load request: a decoded animation plus its
// atlas image, or an error.
type Result struct {
	ID        string
	Animation *anm.Animation
	Atlas     image.Image
	Err       error
}

// Loader decodes animations and atlases on a background goroutine so archive
// I/O never blocks the render path. It holds a single request slot and a
// single response slot: a new request supersedes an unserved one, and a new
// response supersedes an unread one.
type Loader struct {
	archive *Archive

	requests chan string
	results  chan Result
	done     chan struct{}
	once     sync.Once
}

// NewLoader starts a loader over the archive. The archive must stay open for
// the loader's lifetime.
func NewLoader(archive *Archive) *Loader {
	l := &Loader{
		archive:  archive,
		requests: make(chan string, 1),
		results:  make(chan Result, 1),
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

// Request asks for the animation with the given archive id. An unserved
// earlier request is dropped; there is never more than one outstanding.
func (l *Loader) Request(id string) {
	for {
		select {
		case l.requests <- id:
			return
		default:
		}
		select {
		case <-l.requests:
		default:
		}
	}
}

// Poll returns a completed result if one is ready.
func (l *Loader) Poll() (Result, bool) {
	select {
	case res := <-l.results:
		return res, true
	default:
		return Result{}, false
	}
}

// Close stops the background goroutine. It does not close the archive.
func (l *Loader) Close() {
	l.once.Do(func() { close(l.done) })
}

func (l *Loader) run() {
	for {
		select {
		case <-l.done:
			return
		case id := <-l.requests:
			res := l.load(id)
			// Drop an unread previous result; only the newest matters.
			select {
			case <-l.results:
			default:
			}
			select {
			case l.results <- res:
			case <-l.done:
				return
			}
		}
	}
}

func (l *Loader) load(id string) Result {
	animation, err := l.archive.LoadAnimation(id)
	if err != nil {
		return Result{ID: id, Err: err}
	}
	if animation.Texture == nil {
		return Result{ID: id, Err: fmt.Errorf("resources: animation %s has no texture", id)}
	}
	atlas, err := l.archive.LoadAtlas(animation.Texture.Name)
	if err != nil {
		return Result{ID: id, Err: err}
	}
	return Result{ID: id, Animation: animation, Atlas: atlas}
}
