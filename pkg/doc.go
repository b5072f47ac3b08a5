// Package pkg provides the core libraries for campaignkit.
//
// # Overview
//
// Campaignkit turns a base photo into a campaign visual (caption, tint and
// logo layers) and then walks an operator through sending the campaign to a
// list of recipients, one prefilled email or WhatsApp message at a time. The
// pkg directory is organized into four areas:
//
//  1. Visuals: [design], [textwrap], [fonts], [compose]
//  2. Dispatch: [campaign], [recipient], [dispatch], [effects], [archive]
//  3. Generation: [generate]
//  4. Infrastructure: [cache], [sqldb], [events], [httputil], [config],
//     [observability], [errors], [studio]
//
// # Architecture
//
// The typical data flow through campaignkit:
//
//	base photo + design.Settings
//	         ↓
//	    [design] Store (generation-stamped state)
//	         ↓
//	    [compose] Renderer (latest generation wins)
//	         ↓
//	    composed JPEG ──→ clipboard, per recipient
//	                          ↓
//	    [dispatch] Sequencer (mailto: / wa.me links)
//	         ↓
//	    [archive] campaign.Record
//
// [studio] wires these together for one operator session; the CLI and the
// HTTP server both drive a studio.
//
// # Quick Start
//
//	st, _ := studio.New(ctx, studio.Options{
//	    Archive:   archive.NewMemoryArchive(),
//	    Registry:  recipient.NewMemoryRegistry(list...),
//	    Navigator: effects.NewBrowserNavigator(),
//	    Clipboard: effects.SystemClipboard{},
//	})
//	defer st.Close()
//
//	st.LoadBase(ctx, "photo.jpg")
//	st.Store.Update(func(s *design.Settings) { s.OverlayText = "Winter sale" })
//	preview, _ := st.Preview(ctx)
//
//	st.SetDraft(campaign.Draft{Channel: campaign.Email, Subject: "Winter sale", Body: "20% off"})
//	st.StartDispatch(ctx, []string{"r-1", "r-2"})
//	for {
//	    step, err := st.Advance(ctx)
//	    if err != nil || step.Completed {
//	        break
//	    }
//	}
//
// # Storage
//
// [archive] persists completed campaigns in memory, as JSON files, in SQLite
// or Postgres (via [sqldb]) or in MongoDB. [recipient] reads rosters from TOML
// or SQL. [cache] keeps composed images and AI responses on disk or in Redis.
// [events] publishes completed campaigns and dispatch steps to AMQP.
//
// # Testing
//
//	go test ./...
//	CAMPAIGNKIT_TEST_REDIS_ADDR=localhost:6379 go test ./pkg/cache/...
//	CAMPAIGNKIT_TEST_MONGO_URI=mongodb://localhost go test ./pkg/archive/...
//	CAMPAIGNKIT_TEST_AMQP_URL=amqp://localhost go test ./pkg/events/...
//
// [design]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/design
// [textwrap]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/textwrap
// [fonts]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/fonts
// [compose]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/compose
// [campaign]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/campaign
// [recipient]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/recipient
// [dispatch]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/dispatch
// [effects]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/effects
// [archive]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/archive
// [generate]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/generate
// [cache]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/cache
// [sqldb]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/sqldb
// [events]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/events
// [httputil]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/httputil
// [config]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/errors
// [studio]: https://pkg.go.dev/github.com/matzehuels/campaignkit/pkg/studio
package pkg
