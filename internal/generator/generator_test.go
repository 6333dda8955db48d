package generator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"bugscribe.app/bugscribe/common/llm"
	"bugscribe.app/bugscribe/common/logger"
	"bugscribe.app/bugscribe/internal/generator"
	"bugscribe.app/bugscribe/internal/model"
)

const validJSON = `{"Title":"Login button unresponsive on mobile","Description of the issue":"Tapping login does nothing","Steps":"1. Open app on mobile\n2. Tap login","Expected result":"User logs in","Actual result":"Nothing happens"}`

type reply struct {
	text string
	err  error
}

// scriptedRemote replays replies in order and repeats the last one when exhausted.
type scriptedRemote struct {
	replies  []reply
	requests []llm.Request
}

func (s *scriptedRemote) Generate(ctx context.Context, req llm.Request) (string, error) {
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i].text, s.replies[i].err
}

func (s *scriptedRemote) Model() string { return "scripted" }

func (s *scriptedRemote) calls() int { return len(s.requests) }

var _ = Describe("Generator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("returns the report from the first valid response", func() {
		remote := &scriptedRemote{replies: []reply{{text: validJSON}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 3, Temperature: 0.1})

		report, err := g.Generate(ctx, "login button does nothing when clicked on mobile")
		Expect(err).NotTo(HaveOccurred())
		Expect(report).NotTo(BeNil())
		Expect(report.Title).To(Equal("Login button unresponsive on mobile"))
		Expect(report.Steps).To(Equal("1. Open app on mobile\n2. Tap login"))
		Expect(remote.calls()).To(Equal(1))
	})

	It("sends the prompt with the configured temperature and no schema by default", func() {
		remote := &scriptedRemote{replies: []reply{{text: validJSON}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 1, Temperature: 0.1})

		_, err := g.Generate(ctx, "checkout crashes")
		Expect(err).NotTo(HaveOccurred())

		req := remote.requests[0]
		Expect(req.Prompt).To(ContainSubstring("checkout crashes"))
		Expect(req.Temperature).NotTo(BeNil())
		Expect(*req.Temperature).To(BeNumerically("~", 0.1))
		Expect(req.Schema).To(BeNil())
	})

	It("attaches the report schema in structured mode", func() {
		remote := &scriptedRemote{replies: []reply{{text: validJSON}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 1, Structured: true})

		_, err := g.Generate(ctx, "checkout crashes")
		Expect(err).NotTo(HaveOccurred())

		req := remote.requests[0]
		Expect(req.Schema).NotTo(BeNil())
		Expect(req.SchemaName).To(Equal("bug_report"))
		_, ok := req.Schema.Properties.Get(model.FieldDescription)
		Expect(ok).To(BeTrue())
	})

	It("accepts responses wrapped in a json code fence", func() {
		remote := &scriptedRemote{replies: []reply{{text: "```json\n" + validJSON + "\n```"}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 1})

		report, err := g.Generate(ctx, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(report).NotTo(BeNil())
	})

	It("returns nil without error after exactly max attempts of unparsable text", func() {
		remote := &scriptedRemote{replies: []reply{{text: "Sure! Here is your report."}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 3})

		report, err := g.Generate(ctx, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(report).To(BeNil())
		Expect(remote.calls()).To(Equal(3))
	})

	It("treats schema violations like parse failures", func() {
		remote := &scriptedRemote{replies: []reply{
			{text: `{"Title":"only a title"}`},
			{text: `{"Title":1,"Description of the issue":"d","Steps":"s","Expected result":"e","Actual result":"a"}`},
		}}
		g := generator.New(remote, generator.Config{MaxAttempts: 2})

		report, err := g.Generate(ctx, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(report).To(BeNil())
		Expect(remote.calls()).To(Equal(2))
	})

	It("retries reports with blank required fields", func() {
		remote := &scriptedRemote{replies: []reply{
			{text: `{"Title":" ","Description of the issue":"d","Steps":"s","Expected result":"e","Actual result":"a"}`},
			{text: validJSON},
		}}
		g := generator.New(remote, generator.Config{MaxAttempts: 3})

		report, err := g.Generate(ctx, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(report).NotTo(BeNil())
		Expect(remote.calls()).To(Equal(2))
	})

	It("returns a GenerationError after exactly max attempts of transport failures", func() {
		cause := errors.New("quota exceeded")
		remote := &scriptedRemote{replies: []reply{{err: cause}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 3})

		report, err := g.Generate(ctx, "x")
		Expect(report).To(BeNil())
		Expect(remote.calls()).To(Equal(3))

		var genErr *generator.GenerationError
		Expect(errors.As(err, &genErr)).To(BeTrue())
		Expect(genErr.Attempts).To(Equal(3))
		Expect(errors.Is(err, cause)).To(BeTrue())
	})

	It("stops after a transport failure followed by a success", func() {
		remote := &scriptedRemote{replies: []reply{
			{err: errors.New("connection reset")},
			{text: validJSON},
			{text: `{"Title":"should never be used"}`},
		}}
		g := generator.New(remote, generator.Config{MaxAttempts: 3})

		report, err := g.Generate(ctx, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Title).To(Equal("Login button unresponsive on mobile"))
		Expect(remote.calls()).To(Equal(2))
	})

	It("degrades to no result when only the final attempt is a shape failure", func() {
		remote := &scriptedRemote{replies: []reply{
			{err: errors.New("timeout")},
			{text: "not json"},
		}}
		g := generator.New(remote, generator.Config{MaxAttempts: 2})

		report, err := g.Generate(ctx, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(report).To(BeNil())
	})

	It("raises when only the final attempt is a transport failure", func() {
		remote := &scriptedRemote{replies: []reply{
			{text: "not json"},
			{err: errors.New("unauthorized")},
		}}
		g := generator.New(remote, generator.Config{MaxAttempts: 2})

		_, err := g.Generate(ctx, "x")
		var genErr *generator.GenerationError
		Expect(errors.As(err, &genErr)).To(BeTrue())
		Expect(genErr.Attempts).To(Equal(2))
	})

	It("stops retrying once the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		remote := &scriptedRemote{replies: []reply{{err: context.Canceled}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 5})

		_, err := g.Generate(cctx, "x")
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(remote.calls()).To(Equal(1))
	})

	It("gives up waiting for backoff when the deadline passes", func() {
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		remote := &scriptedRemote{replies: []reply{{text: "not json"}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 3, Backoff: time.Minute})

		_, err := g.Generate(cctx, "x")
		var genErr *generator.GenerationError
		Expect(errors.As(err, &genErr)).To(BeTrue())
		Expect(genErr.Attempts).To(Equal(1))
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
	})

	It("defaults to three attempts when none are configured", func() {
		g := generator.New(&scriptedRemote{replies: []reply{{text: validJSON}}}, generator.Config{})
		Expect(g.MaxAttempts()).To(Equal(generator.DefaultMaxAttempts))
	})
})

var _ = Describe("Generator logging", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		previous := slog.Default()
		handler := logger.NewTraceHandler(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(slog.New(handler))
		DeferCleanup(func() { slog.SetDefault(previous) })
	})

	entries := func(msg string) []map[string]any {
		var out []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			var entry map[string]any
			Expect(json.Unmarshal([]byte(line), &entry)).To(Succeed())
			if entry["msg"] == msg {
				out = append(out, entry)
			}
		}
		return out
	}

	It("logs the raw response once, on the final shape failure only", func() {
		remote := &scriptedRemote{replies: []reply{{text: "Sure! Here is your report."}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 3})

		report, err := g.Generate(context.Background(), "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(report).To(BeNil())

		failures := entries("response failed schema validation")
		Expect(failures).To(HaveLen(3))
		for i, entry := range failures {
			Expect(entry).To(HaveKeyWithValue("attempt", BeNumerically("==", i+1)))
			Expect(entry).To(HaveKeyWithValue("component", "bugscribe.generator"))
			if i < 2 {
				Expect(entry).NotTo(HaveKey("raw_response"))
				Expect(entry).To(HaveKeyWithValue("final", false))
			}
		}
		Expect(failures[2]).To(HaveKeyWithValue("raw_response", "Sure! Here is your report."))
		Expect(failures[2]).To(HaveKeyWithValue("final", true))
		Expect(strings.Count(buf.String(), `"raw_response"`)).To(Equal(1))

		Expect(entries("no valid bug report after all attempts")).To(HaveLen(1))
	})

	It("tags each transport failure with its attempt", func() {
		remote := &scriptedRemote{replies: []reply{{err: errors.New("quota exceeded")}}}
		g := generator.New(remote, generator.Config{MaxAttempts: 2})

		_, err := g.Generate(context.Background(), "x")
		Expect(err).To(HaveOccurred())

		failures := entries("remote generation call failed")
		Expect(failures).To(HaveLen(2))
		Expect(failures[0]).To(HaveKeyWithValue("attempt", BeNumerically("==", 1)))
		Expect(failures[1]).To(HaveKeyWithValue("attempt", BeNumerically("==", 2)))
		Expect(failures[1]).To(HaveKeyWithValue("error", "quota exceeded"))
		Expect(buf.String()).NotTo(ContainSubstring("raw_response"))
	})
})
