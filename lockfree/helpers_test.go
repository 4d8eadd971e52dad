package lockfree

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/reclaim/epoch"
	"github.com/momentics/hioload-lockfree/reclaim/hazard"
)

// schemes runs a test body once per reclamation scheme.
func schemes(t *testing.T, body func(c *qt.C, r api.Reclaimer)) {
	c := qt.New(t)
	c.Run("hazard", func(c *qt.C) {
		body(c, hazard.NewDomain(hazard.WithScanThreshold(16)))
	})
	c.Run("epoch", func(c *qt.C) {
		body(c, epoch.NewDomain())
	})
}

func register(c *qt.C, r api.Reclaimer) api.Participant {
	p, err := r.Register()
	c.Assert(err, qt.IsNil)
	return p
}

// quiesce frees everything retired once all participants are gone.
func quiesce(c *qt.C, r api.Reclaimer) {
	switch d := r.(type) {
	case *hazard.Domain:
		d.Collect()
	case *epoch.Domain:
		d.Flush()
	}
	c.Assert(r.Pending(), qt.Equals, 0, qt.Commentf("%s left retirements pending", r.Name()))
}
