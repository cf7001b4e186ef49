package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/refyne-backend/internal/data/repos"
	"github.com/yungbote/refyne-backend/internal/data/repos/testutil"
	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/pkg/dbctx"
)

type testDeps struct {
	db       *gorm.DB
	projects repos.ProjectRepo
	docs     repos.DocumentRepo
	chunks   repos.ChunkRepo
	tags     repos.TagRepo
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &testDeps{
		db:       db,
		projects: repos.NewProjectRepo(db, log),
		docs:     repos.NewDocumentRepo(db, log),
		chunks:   repos.NewChunkRepo(db, log),
		tags:     repos.NewTagRepo(db, log),
	}
}

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingSleeper records requested delays and returns immediately.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// scriptedCompletion answers per filename. Filenames listed in fail always
// error; otherwise the next scripted reply for that filename is returned,
// repeating the last one once the script runs out.
type scriptedCompletion struct {
	mu      sync.Mutex
	replies map[string][]string
	fail    map[string]bool
	calls   map[string]int
}

func newScriptedCompletion() *scriptedCompletion {
	return &scriptedCompletion{
		replies: map[string][]string{},
		fail:    map[string]bool{},
		calls:   map[string]int{},
	}
}

func (c *scriptedCompletion) Model() string { return "fake-model" }

func (c *scriptedCompletion) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	filename := filenameFromPrompt(user)
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.calls[filename]
	c.calls[filename] = n + 1
	if c.fail[filename] {
		return "", fmt.Errorf("upstream 529 overloaded")
	}
	script := c.replies[filename]
	if len(script) == 0 {
		return "", fmt.Errorf("no reply scripted for %s", filename)
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n], nil
}

func (c *scriptedCompletion) Calls(filename string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[filename]
}

func filenameFromPrompt(user string) string {
	line, _, _ := strings.Cut(user, "\n")
	return strings.TrimPrefix(line, "Document filename: ")
}

// decompositionJSON builds a valid model reply with n chunks.
func decompositionJSON(category string, n int, tags ...string) string {
	var b strings.Builder
	b.WriteString(`{"document_type":"` + category + `","chunks":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		quoted := make([]string, 0, len(tags))
		for _, t := range tags {
			quoted = append(quoted, `"`+t+`"`)
		}
		fmt.Fprintf(&b, `{"title":"Section %d","content":"Body of section %d.","summary":"About %d.","category":%q,"tags":[%s]}`,
			i, i, i, category, strings.Join(quoted, ","))
	}
	b.WriteString("]}")
	return b.String()
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func waitForRun(t *testing.T, svc ProcessingService, projectID uuid.UUID) types.ProcessingRun {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		run := svc.GetRunStatus(projectID)
		if run.Status == types.RunStatusDone {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run for project %s did not finish", projectID)
	return types.ProcessingRun{}
}

func docStatus(t *testing.T, d *testDeps, id uuid.UUID) *types.Document {
	t.Helper()
	doc, err := d.docs.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || doc == nil {
		t.Fatalf("GetByID(%s): doc=%v err=%v", id, doc, err)
	}
	return doc
}
