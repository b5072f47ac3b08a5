package compose

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// gatedDecoder blocks on assets whose Source is "slow" until release is closed
// or the render is cancelled.
type gatedDecoder struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedDecoder() *gatedDecoder {
	return &gatedDecoder{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (d *gatedDecoder) Decode(ctx context.Context, a design.Asset) (image.Image, error) {
	d.calls.Add(1)
	if a.Source == "slow" {
		d.started <- struct{}{}
		select {
		case <-d.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return ImageDecoder{}.Decode(ctx, a)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRendererLatestGenerationWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	dec := newGatedDecoder()
	e := NewEngine(dec, nil, nil, quietLogger())
	r := NewRenderer(context.Background(), e, nil)
	defer r.Close()

	base := solidPNG(t, 120, 80, color.Black)
	slowLogo := solidPNG(t, 40, 20, color.White)
	slowLogo.Source = "slow"

	s1 := design.DefaultSettings()
	s1.OverlayText = "first draft"
	s2 := design.DefaultSettings()
	s2.OverlayText = "final copy"
	s2.ShowLogo = false

	r.Submit(design.Snapshot{Generation: 1, Settings: s1, Base: base, Logo: &slowLogo})
	<-dec.started
	r.Submit(design.Snapshot{Generation: 2, Settings: s2, Base: base})

	out, err := r.Wait(waitCtx(t))
	if err != nil {
		t.Fatal(err)
	}
	if out == nil || out.Generation != 2 {
		t.Fatalf("current = %+v, want generation 2", out)
	}
	if want := e.Key(base, s2, nil); out.Key != want {
		t.Errorf("preview built from superseded settings")
	}

	close(dec.release)
	r.Close()
	if got := r.Current(); got.Generation != 2 {
		t.Errorf("after settle, generation = %d, want 2", got.Generation)
	}
}

func TestRendererStaleSubmitIgnored(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRenderer(context.Background(), testEngine(), nil)
	defer r.Close()

	base := solidPNG(t, 40, 40, color.Black)
	r.Submit(design.Snapshot{Generation: 5, Settings: design.DefaultSettings(), Base: base})
	r.Submit(design.Snapshot{Generation: 3, Settings: design.DefaultSettings()})

	out, err := r.Wait(waitCtx(t))
	if err != nil {
		t.Fatal(err)
	}
	if out == nil || out.Generation != 5 {
		t.Errorf("current = %+v, want generation 5", out)
	}
}

func TestRendererFailureKeepsPrevious(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRenderer(context.Background(), testEngine(), nil)
	defer r.Close()

	good := solidPNG(t, 40, 40, color.Black)
	r.Submit(design.Snapshot{Generation: 1, Settings: design.DefaultSettings(), Base: good})
	if _, err := r.Wait(waitCtx(t)); err != nil {
		t.Fatal(err)
	}

	r.Submit(design.Snapshot{Generation: 2, Settings: design.DefaultSettings(), Base: design.Asset{Data: []byte("broken")}})
	out, err := r.Wait(waitCtx(t))
	if !errors.Is(err, errors.ErrCodeDecode) {
		t.Errorf("err = %v, want DECODE_FAILED", err)
	}
	if out == nil || out.Generation != 1 {
		t.Errorf("previous preview lost: %+v", out)
	}
}

func TestRendererAttach(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRenderer(context.Background(), testEngine(), nil)
	defer r.Close()

	var updates atomic.Int32
	r.OnUpdate(func(*Composed, error) { updates.Add(1) })

	store := design.NewStore(design.DefaultSettings())
	detach := r.Attach(store)
	defer detach()

	if out, _ := r.Wait(waitCtx(t)); out != nil {
		t.Error("no base: want no preview")
	}

	snap := store.SetBase(solidPNG(t, 60, 30, color.Black))
	out, err := r.Wait(waitCtx(t))
	if err != nil {
		t.Fatal(err)
	}
	if out == nil || out.Generation != snap.Generation {
		t.Errorf("current = %+v, want generation %d", out, snap.Generation)
	}

	store.Reset(design.DefaultSettings())
	if out, _ := r.Wait(waitCtx(t)); out != nil {
		t.Error("reset campaign should clear the preview")
	}
	if updates.Load() < 1 {
		t.Error("OnUpdate not called")
	}
}

func TestRendererClosedIgnoresSubmit(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRenderer(context.Background(), testEngine(), nil)
	r.Close()
	r.Submit(design.Snapshot{Generation: 1, Base: solidPNG(t, 10, 10, color.Black)})
	if r.Generation() != 0 {
		t.Error("closed renderer accepted a submit")
	}
}
