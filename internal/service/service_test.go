package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"ozzus/checkplugin/internal/config"
	"ozzus/checkplugin/internal/domain"
	"ozzus/checkplugin/internal/submit"
	"ozzus/checkplugin/pkg/plugin"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSubmitter struct {
	mu   sync.Mutex
	subs []domain.Submission
	fail map[string]bool
}

func (s *recordingSubmitter) Submit(_ context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail[sub.ID] || s.fail[sub.Host] {
		return errors.New("pipe closed")
	}
	s.subs = append(s.subs, sub)
	return nil
}

func TestRunnerRun(t *testing.T) {
	RegisterTestingT(t)

	specs := []config.CheckSpec{
		{Name: "check_web.rb", Host: "web1", Kind: "active", Measure: "dummy", Params: map[string]any{"state": "OK", "message": "fine"}},
		{Name: "disk", Host: "web1", Kind: "service", Measure: "dummy", Params: map[string]any{"state": "1", "message": "80% full"}},
		{Name: "ping", Host: "web2", Kind: "host", Measure: "dummy", Params: map[string]any{"state": "UP"}},
		{Name: "odd", Host: "web1", Kind: "passive", Measure: "dummy"},
		{Name: "snmp", Host: "web1", Kind: "active", Measure: "snmp"},
		{Name: "nohost", Kind: "active", Measure: "dummy"},
	}

	sub := &recordingSubmitter{}
	reports := NewRunner(sub, RunnerConfig{Concurrency: 3}, discardLogger()).Run(context.Background(), specs)
	Expect(reports).To(HaveLen(len(specs)))

	Expect(reports[0].Name).To(Equal("WEB"))
	Expect(reports[0].Code).To(Equal(0))
	Expect(reports[0].Output).To(HavePrefix("WEB OK: fine | time="))
	Expect(reports[0].Failed()).To(BeFalse())

	Expect(reports[1].Kind).To(Equal("service"))
	Expect(reports[1].Severity).To(Equal("WARNING"))
	Expect(reports[1].Output).To(ContainSubstring("PROCESS_SERVICE_CHECK_RESULT;web1;DISK;1;80% full"))

	Expect(reports[2].Output).To(ContainSubstring("PROCESS_HOST_CHECK_RESULT;web2;0;<EMPTY>"))

	for _, i := range []int{3, 4, 5} {
		Expect(reports[i].Failed()).To(BeTrue(), reports[i].Name)
		Expect(reports[i].Severity).To(Equal("UNKNOWN"))
		Expect(reports[i].Code).To(Equal(3))
	}
	Expect(reports[3].Output).To(HavePrefix("ODD UNKNOWN: "))
	Expect(reports[4].Error).To(ContainSubstring(plugin.ErrNotImplemented.Error()))
	Expect(reports[5].Error).To(ContainSubstring(plugin.ErrConfiguration.Error()))

	Expect(sub.subs).To(HaveLen(2))
	hosts := []string{sub.subs[0].Host, sub.subs[1].Host}
	Expect(hosts).To(ConsistOf("web1", "web2"))
}

func TestRunnerSubmitFailure(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		check string
		state string
	}{
		{name: "service ok", kind: "service", check: "disk", state: "OK"},
		{name: "host up", kind: "host", check: "ping", state: "UP"},
		{name: "host down", kind: "host", check: "ping", state: "DOWN"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			RegisterTestingT(t)

			sub := &recordingSubmitter{fail: map[string]bool{"web1": true}}
			reports := NewRunner(sub, RunnerConfig{}, discardLogger()).Run(context.Background(), []config.CheckSpec{
				{Name: test.check, Host: "web1", Kind: test.kind, Measure: "dummy", Params: map[string]any{"state": test.state, "message": "x"}},
			})

			rep := reports[0]
			Expect(rep.Failed()).To(BeTrue())
			Expect(rep.Kind).To(Equal(test.kind))
			Expect(rep.Severity).To(Equal("UNKNOWN"))
			Expect(rep.Code).To(Equal(3))
			Expect(rep.Error).To(ContainSubstring("pipe closed"))
			Expect(rep.Output).To(HavePrefix(strings.ToUpper(test.check) + " UNKNOWN: "))
			Expect(rep.Output).NotTo(ContainSubstring("PROCESS_"))
			Expect(sub.subs).To(BeEmpty())
		})
	}
}

func TestRunnerWithoutSubmitter(t *testing.T) {
	RegisterTestingT(t)

	reports := NewRunner(nil, RunnerConfig{}, discardLogger()).Run(context.Background(), []config.CheckSpec{
		{Name: "ping", Host: "web2", Kind: "host", Measure: "dummy", Params: map[string]any{"state": "DOWN"}},
	})

	Expect(reports[0].Failed()).To(BeFalse())
	Expect(reports[0].Code).To(Equal(1))
}

type fakeInbox struct {
	mu       sync.Mutex
	batches  [][]domain.Submission
	acked    []string
	nacked   []string
	fetchErr error
}

func (f *fakeInbox) FetchSubmissions(context.Context) ([]domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeInbox) AckSubmission(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeInbox) NackSubmission(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, id)
}

func TestRelayProcessBatch(t *testing.T) {
	RegisterTestingT(t)

	inbox := &fakeInbox{batches: [][]domain.Submission{{
		{ID: "a", Host: "web1", Line: "[1] PROCESS_HOST_CHECK_RESULT;web1;0;up"},
		{ID: "b", Host: "web2", Line: "[1] PROCESS_HOST_CHECK_RESULT;web2;1;down"},
		{ID: "c", Host: "web3", Line: "[1] PROCESS_HOST_CHECK_RESULT;web3;0;up"},
	}}}
	sink := &recordingSubmitter{fail: map[string]bool{"b": true}}

	r := NewRelay(inbox, sink, RelayConfig{RelayID: "relay-1"}, discardLogger())
	Expect(r.processBatch(context.Background())).To(Succeed())

	Expect(inbox.acked).To(Equal([]string{"a"}))
	Expect(inbox.nacked).To(Equal([]string{"b", "c"}))
	Expect(sink.subs).To(HaveLen(1))

	stats := r.Stats()
	Expect(stats.Received).To(BeEquivalentTo(3))
	Expect(stats.Written).To(BeEquivalentTo(1))
	Expect(stats.Failed).To(BeEquivalentTo(1))
	Expect(stats.LastWrite).NotTo(BeZero())

	Expect(r.processBatch(context.Background())).To(Succeed())
	Expect(r.Stats().Received).To(BeEquivalentTo(3))
}

func TestRelayDropsMultilineSubmissions(t *testing.T) {
	RegisterTestingT(t)

	inbox := &fakeInbox{batches: [][]domain.Submission{{
		{ID: "a", Host: "web1", Line: "[1] PROCESS_HOST_CHECK_RESULT;web1;0;up\n[0] DISABLE_NOTIFICATIONS"},
		{ID: "b", Host: "web2", Line: "[1] PROCESS_HOST_CHECK_RESULT;web2;0;up"},
	}}}
	var buf bytes.Buffer

	r := NewRelay(inbox, submit.NewWriter(&buf), RelayConfig{}, discardLogger())
	Expect(r.processBatch(context.Background())).To(Succeed())

	Expect(inbox.acked).To(Equal([]string{"a", "b"}))
	Expect(inbox.nacked).To(BeEmpty())
	Expect(buf.String()).To(Equal("[1] PROCESS_HOST_CHECK_RESULT;web2;0;up\n"))
	Expect(r.Stats().Failed).To(BeEquivalentTo(1))
	Expect(r.Stats().Written).To(BeEquivalentTo(1))
}

func TestRelayFetchError(t *testing.T) {
	RegisterTestingT(t)

	inbox := &fakeInbox{fetchErr: errors.New("broker down")}
	r := NewRelay(inbox, &recordingSubmitter{}, RelayConfig{}, discardLogger())
	Expect(r.processBatch(context.Background())).To(MatchError(ContainSubstring("broker down")))
}

func TestRelayLifecycle(t *testing.T) {
	RegisterTestingT(t)

	inbox := &fakeInbox{batches: [][]domain.Submission{{{ID: "a", Host: "web1", Line: "x"}}}}
	sink := &recordingSubmitter{}
	r := NewRelay(inbox, sink, RelayConfig{RelayID: "relay-1", PollInterval: 10 * time.Millisecond}, discardLogger())

	Expect(r.HealthCheck(context.Background())).To(HaveOccurred())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	Eventually(func() error { return r.HealthCheck(ctx) }).Should(Succeed())
	Eventually(func() int64 { return r.Stats().Written }).Should(BeEquivalentTo(1))

	status := r.GetStatus()
	Expect(status).To(HaveKeyWithValue("relay_id", "relay-1"))
	Expect(status).To(HaveKeyWithValue("is_running", true))

	cancel()
	Eventually(done).Should(Receive(BeNil()))
	Expect(r.HealthCheck(context.Background())).To(HaveOccurred())
}
