// Command selah is the CLI for the Selah scripture service.
// It provides verse lookup, search, study and answer generation, corpus
// management, and the REST API server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	jsoniter "github.com/json-iterator/go"

	"github.com/havenapps/selah/core/daily"
	"github.com/havenapps/selah/core/resolve"
	"github.com/havenapps/selah/core/salvage"
	"github.com/havenapps/selah/core/scripture"
	"github.com/havenapps/selah/core/search"
	"github.com/havenapps/selah/internal/api"
	"github.com/havenapps/selah/internal/cache"
	"github.com/havenapps/selah/internal/formats/zefania"
	"github.com/havenapps/selah/internal/genai"
	"github.com/havenapps/selah/internal/logging"
	"github.com/havenapps/selah/internal/provider"
	"github.com/havenapps/selah/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const version = "0.3.0"

// CLI defines the command-line interface for selah.
var CLI struct {
	// Global flags
	LogLevel     string `name:"log-level" help:"Log level (debug, info, warn, error)" enum:"debug,info,warn,error" default:"info"`
	LogFormat    string `name:"log-format" help:"Log format (json, text)" enum:"json,text" default:"text"`
	DB           string `name:"db" help:"SQLite database path (empty = no persistence)" type:"path" env:"SELAH_DB"`
	ScriptureKey string `name:"scripture-key" help:"Scripture provider API key" env:"SELAH_SCRIPTURE_API_KEY"`
	GenKey       string `name:"gen-key" help:"Generative backend API key" env:"SELAH_GEN_API_KEY"`
	GenModel     string `name:"gen-model" help:"Generative backend model" env:"SELAH_GEN_MODEL"`

	// Command groups (noun-first organization)
	Verse        VerseGroup      `cmd:"" help:"Verse resolution (get, daily)"`
	Search       SearchCmd       `cmd:"" help:"Search scripture and saved studies"`
	Study        StudyGroup      `cmd:"" help:"Study generation and management"`
	Answer       AnswerCmd       `cmd:"" help:"Answer a question from scripture"`
	Corpus       CorpusGroup     `cmd:"" help:"Offline corpus management"`
	Translations TranslationsCmd `cmd:"" help:"List available translations"`
	Serve        ServeCmd        `cmd:"" help:"Start REST API server"`
	Version      VersionCmd      `cmd:"" help:"Print version information"`
}

// VerseGroup contains verse resolution operations.
type VerseGroup struct {
	Get   VerseGetCmd   `cmd:"" help:"Resolve a verse reference"`
	Daily VerseDailyCmd `cmd:"" help:"Show the verse of the day"`
}

// StudyGroup contains study lifecycle operations.
type StudyGroup struct {
	Generate StudyGenerateCmd `cmd:"" help:"Generate a topical study"`
	List     StudyListCmd     `cmd:"" help:"List saved studies"`
	Show     StudyShowCmd     `cmd:"" help:"Show a saved study"`
	Export   StudyExportCmd   `cmd:"" help:"Export saved studies to a compressed archive"`
	Import   StudyImportCmd   `cmd:"" help:"Import studies from a compressed archive"`
}

// CorpusGroup contains offline corpus operations.
type CorpusGroup struct {
	Import CorpusImportCmd `cmd:"" help:"Import a Zefania XML module into the corpus store"`
}

// services bundles the wired collaborators for a CLI invocation.
type services struct {
	store    *store.Store
	resolver *resolve.Resolver
	daily    *daily.Selector
	search   *search.Orchestrator
	pipeline *salvage.Pipeline
}

// buildServices wires collaborators from the global flags. Remote tiers
// are enabled only when their API keys are present, so every command
// works offline against the embedded corpus.
func buildServices() (*services, error) {
	var st *store.Store
	if CLI.DB != "" {
		var err error
		st, err = store.Open(CLI.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
	}

	var scriptureProvider resolve.ScriptureProvider
	if CLI.ScriptureKey != "" {
		scriptureProvider = provider.NewClient(provider.Config{APIKey: CLI.ScriptureKey})
	}

	var recommender search.Recommender
	var generator salvage.Generator
	if CLI.GenKey != "" {
		client := genai.NewClient(genai.Config{APIKey: CLI.GenKey, Model: CLI.GenModel})
		recommender = client
		generator = client
	}

	resolver := resolve.New(resolve.Config{Provider: scriptureProvider})

	var dailyStore daily.Store
	if st != nil {
		dailyStore = st
	}
	selector := daily.New(daily.Config{
		Resolver: resolver,
		Store:    dailyStore,
		Local:    cache.NewDayCache[scripture.Passage](),
	})

	var content search.ContentSearcher
	if st != nil {
		content = st
	}
	orchestrator := search.New(search.Config{
		Resolver:    resolver,
		Provider:    scriptureProvider,
		Recommender: recommender,
		Content:     content,
	})

	return &services{
		store:    st,
		resolver: resolver,
		daily:    selector,
		search:   orchestrator,
		pipeline: salvage.NewPipeline(generator, resolver),
	}, nil
}

func (s *services) close() {
	if s.store != nil {
		s.store.Close()
	}
}

func printPassage(p scripture.Passage) {
	fmt.Printf("%s (%s)\n%s\n", p.Reference, p.Translation, p.Text)
	if p.Copyright != "" {
		fmt.Printf("  %s\n", p.Copyright)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// VerseGetCmd resolves a verse reference.
type VerseGetCmd struct {
	Ref         string `arg:"" help:"Verse reference, e.g. \"John 3:16\""`
	Translation string `help:"Translation code" default:"KJV"`
	JSON        bool   `help:"Output as JSON"`
}

func (c *VerseGetCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	passage := svc.resolver.Resolve(context.Background(), c.Ref, c.Translation)
	if c.JSON {
		return printJSON(passage)
	}
	printPassage(passage)
	return nil
}

// VerseDailyCmd shows the verse of the day.
type VerseDailyCmd struct {
	Translation string `help:"Translation code" default:"KJV"`
	JSON        bool   `help:"Output as JSON"`
}

func (c *VerseDailyCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	passage := svc.daily.Verse(context.Background(), c.Translation)
	if c.JSON {
		return printJSON(passage)
	}
	printPassage(passage)
	return nil
}

// SearchCmd searches scripture and saved studies.
type SearchCmd struct {
	Query       string `arg:"" help:"Search query"`
	Translation string `help:"Translation code" default:"KJV"`
	Limit       int    `help:"Maximum verse results" default:"10"`
	JSON        bool   `help:"Output as JSON"`
}

func (c *SearchCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	resp := svc.search.Search(context.Background(), c.Query, c.Translation, c.Limit)
	if c.JSON {
		return printJSON(resp)
	}

	if resp.AIRecommended {
		fmt.Println("Recommended passages:")
	}
	for _, result := range resp.Results {
		switch result.Kind {
		case search.KindStudy:
			fmt.Printf("[study %s] %s - %s\n", result.Study.ID, result.Study.Title, result.Study.Snippet)
		case search.KindVerse:
			printPassage(*result.Passage)
		}
	}
	return nil
}

// StudyGenerateCmd generates a topical study.
type StudyGenerateCmd struct {
	Topic       string `arg:"" help:"Study topic"`
	Translation string `help:"Translation code" default:"KJV"`
	JSON        bool   `help:"Output as JSON"`
}

func (c *StudyGenerateCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	study := svc.pipeline.GenerateStudy(context.Background(), c.Topic, c.Translation)

	if svc.store != nil {
		id, err := svc.store.SaveStudy(context.Background(), c.Topic, study)
		if err != nil {
			logging.StoreError("save_study", err)
		} else {
			fmt.Printf("Saved as %s\n", id)
		}
	}

	if c.JSON {
		return printJSON(study)
	}

	fmt.Printf("%s\n\n%s\n\n", study.Title, study.Context)
	for _, s := range study.Scriptures {
		fmt.Printf("  %s - %s\n", s.Reference, s.Text)
	}
	fmt.Printf("\n%s\n\nReflection:\n", study.Application)
	for _, q := range study.ReflectionQuestions {
		fmt.Printf("  - %s\n", q)
	}
	if study.IsAPIError {
		fmt.Printf("\nNote: %s\n", study.Reason)
	}
	return nil
}

// StudyListCmd lists saved studies.
type StudyListCmd struct {
	Limit int  `help:"Maximum studies to list" default:"50"`
	JSON  bool `help:"Output as JSON"`
}

func (c *StudyListCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	if svc.store == nil {
		return fmt.Errorf("no database configured (set --db)")
	}

	studies, err := svc.store.ListStudies(context.Background(), c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list studies: %w", err)
	}

	if c.JSON {
		return printJSON(studies)
	}
	for _, s := range studies {
		fmt.Printf("%s  %-20s %s\n", s.ID, s.Topic, s.Study.Title)
	}
	fmt.Printf("%d studies\n", len(studies))
	return nil
}

// StudyShowCmd shows a saved study.
type StudyShowCmd struct {
	ID string `arg:"" help:"Study ID"`
}

func (c *StudyShowCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	if svc.store == nil {
		return fmt.Errorf("no database configured (set --db)")
	}

	saved, err := svc.store.Study(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("study not found: %w", err)
	}
	return printJSON(saved)
}

// StudyExportCmd exports saved studies to a compressed archive.
type StudyExportCmd struct {
	Out string `required:"" help:"Output archive path (.xz)" type:"path"`
}

func (c *StudyExportCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	if svc.store == nil {
		return fmt.Errorf("no database configured (set --db)")
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	n, err := svc.store.ExportStudies(context.Background(), f)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Printf("Exported %d studies to %s\n", n, c.Out)
	return nil
}

// StudyImportCmd imports studies from a compressed archive.
type StudyImportCmd struct {
	Path string `arg:"" help:"Archive path (.xz)" type:"existingfile"`
}

func (c *StudyImportCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	if svc.store == nil {
		return fmt.Errorf("no database configured (set --db)")
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	n, err := svc.store.ImportStudies(context.Background(), f)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Printf("Imported %d studies\n", n)
	return nil
}

// AnswerCmd answers a question from scripture.
type AnswerCmd struct {
	Question    string `arg:"" help:"Question to answer"`
	Translation string `help:"Translation code" default:"KJV"`
	JSON        bool   `help:"Output as JSON"`
}

func (c *AnswerCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	answer := svc.pipeline.GenerateAnswer(context.Background(), c.Question, c.Translation)

	if svc.store != nil {
		if id, err := svc.store.SaveAnswer(context.Background(), c.Question, answer); err == nil {
			fmt.Printf("Saved as %s\n", id)
		}
	}

	if c.JSON {
		return printJSON(answer)
	}

	fmt.Printf("%s\n\n", answer.Answer)
	for _, s := range answer.Scriptures {
		fmt.Printf("  %s - %s\n", s.Reference, s.Text)
	}
	if answer.Application != "" {
		fmt.Printf("\n%s\n", answer.Application)
	}
	if answer.IsAPIError || answer.CannotAnswer {
		fmt.Printf("\nNote: %s\n", answer.Reason)
	}
	return nil
}

// CorpusImportCmd imports a Zefania XML module into the corpus store.
type CorpusImportCmd struct {
	Path        string `arg:"" help:"Path to Zefania XML file" type:"existingfile"`
	Translation string `required:"" help:"Translation code to store entries under"`
}

func (c *CorpusImportCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	if svc.store == nil {
		return fmt.Errorf("no database configured (set --db)")
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open module: %w", err)
	}
	defer f.Close()

	module, err := zefania.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse module: %w", err)
	}

	entries := make([]store.CorpusEntry, 0, len(module.Verses))
	for _, v := range module.Verses {
		entries = append(entries, store.CorpusEntry{
			Reference:   v.Reference(),
			Translation: c.Translation,
			Text:        v.Text,
		})
	}

	if err := svc.store.ReplaceCorpusEntries(context.Background(), c.Translation, entries); err != nil {
		return fmt.Errorf("failed to store corpus entries: %w", err)
	}

	fmt.Printf("Imported %s: %d verses as %s\n", module.Name, len(entries), c.Translation)
	return nil
}

// TranslationsCmd lists available translations.
type TranslationsCmd struct {
	Remote bool `help:"List the remote provider's catalog instead of the built-in registry"`
	JSON   bool `help:"Output as JSON"`
}

func (c *TranslationsCmd) Run() error {
	if c.Remote {
		if CLI.ScriptureKey == "" {
			return fmt.Errorf("remote listing requires --scripture-key")
		}
		client := provider.NewClient(provider.Config{APIKey: CLI.ScriptureKey})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		remote, err := client.ListTranslations(ctx)
		if err != nil {
			return fmt.Errorf("failed to list remote translations: %w", err)
		}
		if c.JSON {
			return printJSON(remote)
		}
		for _, t := range remote {
			fmt.Printf("%-12s %s (%s)\n", t.Abbreviation, t.Name, t.Language)
		}
		return nil
	}

	local := scripture.Translations()
	if c.JSON {
		return printJSON(local)
	}
	for _, t := range local {
		fmt.Printf("%-8s %s\n", t.Code, t.Name)
	}
	return nil
}

// ServeCmd starts the REST API server.
type ServeCmd struct {
	Port              int      `help:"HTTP server port" default:"8081"`
	APIKey            string   `name:"api-key" help:"Require this API key on requests" env:"SELAH_API_KEY"`
	RateLimitRequests int      `help:"Requests per minute per client (0 = disabled)" default:"0"`
	RateLimitBurst    int      `help:"Rate limit burst size" default:"10"`
	TLSCert           string   `help:"TLS certificate file" type:"path"`
	TLSKey            string   `help:"TLS private key file" type:"path"`
	AllowedOrigins    []string `help:"CORS allowed origins (empty = allow all)"`
}

func (c *ServeCmd) Run() error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	cfg := api.Config{
		Port:              c.Port,
		RateLimitRequests: c.RateLimitRequests,
		RateLimitBurst:    c.RateLimitBurst,
		AllowedOrigins:    c.AllowedOrigins,
		Auth: api.AuthConfig{
			Enabled: c.APIKey != "",
			APIKey:  c.APIKey,
		},
		TLS: api.TLSConfig{
			Enabled:  c.TLSCert != "" || c.TLSKey != "",
			CertFile: c.TLSCert,
			KeyFile:  c.TLSKey,
		},
	}

	return api.Start(cfg, api.Services{
		Resolver: svc.resolver,
		Daily:    svc.daily,
		Search:   svc.search,
		Pipeline: svc.pipeline,
		Store:    svc.store,
	})
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("selah %s\n", version)
	return nil
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}

	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("selah"),
		kong.Description("Selah - scripture lookup, search, and study generation"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
