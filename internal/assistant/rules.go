package assistant

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kestrelworks/kestrel/internal/apps"
	"github.com/kestrelworks/kestrel/internal/brain"
	"github.com/kestrelworks/kestrel/internal/docgen"
	"github.com/kestrelworks/kestrel/internal/emotion"
	"github.com/kestrelworks/kestrel/internal/intent"
	"github.com/kestrelworks/kestrel/internal/lang"
	"github.com/kestrelworks/kestrel/internal/media"
	"github.com/kestrelworks/kestrel/internal/news"
)

const (
	mediaFileKey     = "media:file"
	mediaPrevFileKey = "media:prev_file"
	factPrefix       = "fact:"
)

// APIKeyPreference stores the key spoken through "set api key" so it
// survives restarts.
const APIKeyPreference = "brain:api_key"

// languageAliases is checked in order when the user asks to switch language.
var languageAliases = []struct {
	sub  string
	code string
}{
	{"spanish", "es"}, {"español", "es"},
	{"french", "fr"}, {"français", "fr"},
	{"german", "de"}, {"deutsch", "de"},
	{"chinese", "zh"},
	{"hindi", "hi"},
	{"arabic", "ar"},
	{"portuguese", "pt"},
	{"russian", "ru"},
	{"japanese", "ja"},
	{"korean", "ko"},
	{"english", "en"},
}

var (
	pageNumberPattern = regexp.MustCompile(`\d+`)
	calcPattern       = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(plus|minus|times|divided by|multiplied by|\+|-|\*|x|/)\s*(-?\d+(?:\.\d+)?)`)
)

// rules is the dispatch table. Order is the priority contract: broad rules
// placed early shadow narrower rules after them ("switch to" absorbs
// "switch to openai", "news" absorbs "news search"). The order mirrors how
// the assistant has always routed and must not be rearranged.
func (o *Orchestrator) rules() []intent.Rule {
	contains := intent.Contains
	return []intent.Rule{
		{Name: "switch_language", Match: contains("switch to", "change language"), Handle: o.switchLanguage},
		{Name: "list_languages", Match: contains("what languages", "supported languages"), Handle: o.listLanguages},
		{Name: "whatsapp_send", Match: intent.ContainsAll("whatsapp", "send"), Handle: o.whatsappSend},
		{Name: "open_whatsapp", Match: contains("open whatsapp"), Handle: o.openWhatsApp},
		{Name: "open_app", Match: contains("open "), Handle: o.openApp},
		{Name: "remember", Match: contains("remember that", "remember this", "remember my", "save this"), Handle: o.remember},
		{Name: "recall", Match: contains("what do you remember", "recall"), Handle: o.recall},
		{Name: "learn", Match: contains("learn my", "learn that"), Handle: o.learnFact},
		{Name: "what_is_my", Match: contains("what is my"), Handle: o.whatIsMy},
		{Name: "open_book", Match: contains("read book", "open book"), Handle: o.openBook},
		{Name: "start_reading", Match: contains("start reading", "begin reading", "resume reading", "continue reading"), Handle: o.startReading},
		{Name: "stop_reading", Match: contains("stop reading", "pause reading", "pause book"), Handle: o.stopReading},
		{Name: "next_page", Match: contains("next page"), Handle: o.nextPage},
		{Name: "previous_page", Match: contains("previous page", "last page"), Handle: o.previousPage},
		{Name: "go_to_page", Match: contains("go to page"), Handle: o.goToPage},
		{Name: "add_bookmark", Match: contains("bookmark this", "save bookmark"), Handle: o.addBookmark},
		{Name: "go_to_bookmark", Match: contains("go to bookmark"), Handle: o.goToBookmark},
		{Name: "summarize_page", Match: intent.ContainsAll("summarize", "page"), Handle: o.summarizePage},
		{Name: "reading_speed", Match: contains("reading speed"), Handle: o.readingSpeed},
		{Name: "book_status", Match: contains("book status", "where am i in the book"), Handle: o.bookStatus},
		{Name: "mood", Match: contains("how am i feeling", "my mood"), Handle: o.mood},
		{Name: "feeling", Match: contains("i'm feeling", "i feel"), Handle: o.feeling},
		{Name: "suggest", Match: contains("what should i do", "suggest something"), Handle: o.suggest},
		{Name: "usual", Match: contains("what do i usually do"), Handle: o.usualPattern},
		{Name: "use_groq", Match: contains("use groq"), Handle: o.useProvider("groq")},
		{Name: "use_openai", Match: contains("use openai"), Handle: o.useProvider("openai")},
		{Name: "use_ollama", Match: contains("use ollama"), Handle: o.useProvider("ollama")},
		{Name: "use_mock", Match: contains("use mock"), Handle: o.useProvider("mock")},
		{Name: "set_api_key", Match: contains("set api key"), Handle: o.setAPIKey},
		{Name: "use_file", Match: contains("use file", "work on file"), Handle: o.useFile},
		{Name: "trim_video", Match: contains("trim video", "cut video"), Handle: o.withMediaFile(o.trimVideo)},
		{Name: "merge_videos", Match: contains("merge videos", "combine videos"), Handle: o.withMediaFile(o.mergeVideos)},
		{Name: "add_music", Match: contains("add music to video"), Handle: o.withMediaFile(o.addMusic)},
		{Name: "speed_up", Match: contains("speed up video"), Handle: o.withMediaFile(o.speedVideo(2.0, "faster"))},
		{Name: "slow_down", Match: contains("slow down video"), Handle: o.withMediaFile(o.speedVideo(0.5, "slower"))},
		{Name: "stabilize", Match: contains("stabilize video", "fix shaky video"), Handle: o.withMediaFile(o.stabilizeVideo)},
		{Name: "remove_shake", Match: contains("remove shake"), Handle: o.withMediaFile(o.deshakeVideo)},
		{Name: "enhance_video", Match: contains("enhance video", "improve video quality"), Handle: o.withMediaFile(o.enhanceVideo)},
		{Name: "denoise_video", Match: contains("denoise video", "reduce video noise"), Handle: o.withMediaFile(o.denoiseVideo)},
		{Name: "read_text", Match: contains("read text from image", "extract text"), Handle: o.withMediaFile(o.readTextFromImage)},
		{Name: "scan_document", Match: contains("scan document"), Handle: o.withMediaFile(o.scanDocument)},
		{Name: "extract_emails", Match: contains("extract emails", "find emails"), Handle: o.withMediaFile(o.extractEmails)},
		{Name: "translate_text", Match: contains("translate text", "read and translate"), Handle: o.withMediaFile(o.translateTextFromImage)},
		{Name: "rotate_image", Match: contains("rotate image", "rotate picture"), Handle: o.withMediaFile(o.rotateImage)},
		{Name: "crop_image", Match: contains("crop image", "crop picture"), Handle: o.withMediaFile(o.cropImage)},
		{Name: "apply_filter", Match: contains("apply filter", "add filter"), Handle: o.withMediaFile(o.applyImageFilter)},
		{Name: "create_document", Match: contains("create pdf", "make pdf", "create word document", "format document"), Handle: o.createDocument},
		{Name: "create_resume", Match: contains("create resume", "make cv"), Handle: o.createResume},
		{Name: "create_invoice", Match: contains("create invoice"), Handle: o.createInvoice},
		{Name: "create_song", Match: contains("create song", "make song"), Handle: o.withMediaFile(o.createSong)},
		{Name: "generate_music", Match: contains("generate music", "create music"), Handle: o.generateMusic},
		{Name: "add_background_music", Match: contains("add background music"), Handle: o.withMediaFile(o.addBackgroundMusic)},
		{Name: "change_pitch", Match: contains("change voice pitch"), Handle: o.withMediaFile(o.changePitch)},
		{Name: "add_echo", Match: contains("add echo", "add reverb"), Handle: o.withMediaFile(o.addEcho)},
		{Name: "create_meme", Match: contains("create meme", "make meme"), Handle: o.withMediaFile(o.createMeme)},
		{Name: "caption_video", Match: contains("add caption to video"), Handle: o.withMediaFile(o.captionVideo)},
		{Name: "sync_learnings", Match: contains("sync learnings", "update model"), Handle: o.syncLearnings},
		{Name: "enable_federated", Match: contains("enable federated learning"), Handle: o.setFederated(true)},
		{Name: "disable_federated", Match: contains("disable federated learning"), Handle: o.setFederated(false)},
		{Name: "conversation_mode_on", Match: contains("conversation mode on"), Handle: o.conversationMode(true)},
		{Name: "conversation_mode_off", Match: contains("conversation mode off"), Handle: o.conversationMode(false)},
		{Name: "set_wake_word", Match: contains("change wake word", "set wake word"), Handle: o.setWakeWord},
		{Name: "take_note", Match: contains("take a note"), Handle: o.takeNote},
		{Name: "read_notes", Match: contains("read my notes"), Handle: o.readNotes},
		{Name: "good_morning", Match: contains("good morning"), Handle: o.goodMorning},
		{Name: "good_night", Match: contains("good night"), Handle: o.goodNight},
		{Name: "ask", Match: contains("ask", "tell me about"), Handle: o.askBrain},
		{Name: "weather", Match: contains("weather"), Handle: o.chatFallback},
		{Name: "summarize_news", Match: contains("summarize the news", "news summary"), Handle: o.summarizeNews},
		{Name: "personalized_news", Match: contains("personalized news", "my news"), Handle: o.personalizedNews},
		{Name: "news_categories", Match: contains("set news categories", "set news category"), Handle: o.setNewsCategories},
		{Name: "news", Match: contains("news"), Handle: o.newsCommand},
		{Name: "trending", Match: contains("trending"), Handle: o.trending},
		{Name: "time", Match: contains("time"), Handle: o.tellTime},
		{Name: "play_music", Match: contains("play music"), Handle: o.playMusic},
		{Name: "calculate", Match: contains("calculate"), Handle: o.calculate},
		{Name: "web_search", Match: contains("search"), Handle: o.webSearch},
		{Name: "date", Match: contains("date"), Handle: o.tellDate},
	}
}

// after returns the trimmed text following the first keyword present.
func after(command string, keywords ...string) string {
	for _, kw := range keywords {
		if i := strings.Index(command, kw); i >= 0 {
			return strings.TrimSpace(command[i+len(kw):])
		}
	}
	return ""
}

func (o *Orchestrator) switchLanguage(ctx context.Context, req intent.Request) (intent.Response, error) {
	for _, alias := range languageAliases {
		if strings.Contains(req.Command, alias.sub) {
			o.f.Lang.Set(alias.code)
			return intent.Response{Speech: lang.LocalizedResponse("greeting", alias.code)}, nil
		}
	}
	return intent.Response{Speech: "I can't switch to that language."}, nil
}

func (o *Orchestrator) listLanguages(ctx context.Context, req intent.Request) (intent.Response, error) {
	names := make([]string, 0)
	for _, l := range lang.Supported() {
		names = append(names, l.Name)
	}
	return intent.Response{Speech: "I speak " + strings.Join(names, ", ") + "."}, nil
}

func (o *Orchestrator) whatsappSend(ctx context.Context, req intent.Request) (intent.Response, error) {
	message, contact, ok := parseSend(req.Command)
	if !ok {
		return intent.Response{Speech: "Say: send your message to a contact name on whatsapp."}, nil
	}
	if err := o.f.Messenger.SendToContact(ctx, contact, message); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: fmt.Sprintf("Sent your message to %s.", contact)}, nil
}

// parseSend splits "send <message> to <contact> on whatsapp".
func parseSend(command string) (message, contact string, ok bool) {
	rest := after(command, "send")
	if rest == "" {
		return "", "", false
	}
	i := strings.LastIndex(rest, " to ")
	if i < 0 {
		return "", "", false
	}
	message = strings.TrimSpace(rest[:i])
	contact = strings.TrimSpace(rest[i+len(" to "):])
	contact = strings.TrimSuffix(contact, "on whatsapp")
	contact = strings.TrimSuffix(strings.TrimSpace(contact), "whatsapp")
	contact = strings.TrimSpace(contact)
	if message == "" || contact == "" {
		return "", "", false
	}
	return message, contact, true
}

func (o *Orchestrator) openWhatsApp(ctx context.Context, req intent.Request) (intent.Response, error) {
	if err := o.f.Launcher.Open(ctx, "whatsapp"); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "Opening WhatsApp."}, nil
}

func (o *Orchestrator) openApp(ctx context.Context, req intent.Request) (intent.Response, error) {
	name := after(req.Command, "open ")
	if name == "" {
		return intent.Response{Speech: "Open what?"}, nil
	}
	if err := o.f.Launcher.Open(ctx, name); err != nil {
		match, ok := apps.Find(name)
		if !ok {
			return intent.Response{Speech: fmt.Sprintf("I don't know how to open %s.", name)}, nil
		}
		if err := o.f.Launcher.Open(ctx, match); err != nil {
			return intent.Response{}, err
		}
		name = match
	}
	return intent.Response{Speech: fmt.Sprintf("Opening %s.", name)}, nil
}

func (o *Orchestrator) remember(ctx context.Context, req intent.Request) (intent.Response, error) {
	text := after(req.Command, "remember", "save this")
	text = strings.TrimPrefix(text, "that ")
	text = strings.TrimPrefix(text, "this ")
	if text == "" {
		return intent.Response{Speech: "What should I remember?"}, nil
	}
	if err := o.f.Memory.SaveNote(ctx, text); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "I'll remember that."}, nil
}

func (o *Orchestrator) recall(ctx context.Context, req intent.Request) (intent.Response, error) {
	notes, err := o.f.Memory.RecentNotes(ctx, 5)
	if err != nil {
		return intent.Response{}, err
	}
	if len(notes) == 0 {
		return intent.Response{Speech: "I don't have any memories yet."}, nil
	}
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = n.Text
	}
	return intent.Response{Speech: "Here's what I remember: " + strings.Join(parts, "; ") + "."}, nil
}

func (o *Orchestrator) learnFact(ctx context.Context, req intent.Request) (intent.Response, error) {
	rest := after(req.Command, "learn")
	rest = strings.TrimPrefix(rest, "that ")
	if key, value, ok := parseFact(rest); ok {
		if err := o.f.Memory.SetPreference(ctx, factPrefix+key, value); err != nil {
			return intent.Response{}, err
		}
		return intent.Response{Speech: fmt.Sprintf("Got it, your %s is %s.", key, value)}, nil
	}
	if rest == "" {
		return intent.Response{Speech: "What should I learn?"}, nil
	}
	if err := o.f.Memory.SaveNote(ctx, rest); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "Learned."}, nil
}

// parseFact splits "my <key> is <value>".
func parseFact(text string) (key, value string, ok bool) {
	rest := after(text, "my ")
	if rest == "" {
		return "", "", false
	}
	i := strings.Index(rest, " is ")
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(rest[:i])
	value = strings.TrimSpace(rest[i+len(" is "):])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

func (o *Orchestrator) whatIsMy(ctx context.Context, req intent.Request) (intent.Response, error) {
	key := after(req.Command, "what is my")
	key = strings.TrimSuffix(key, "?")
	if key == "" {
		return intent.Response{Speech: "Your what?"}, nil
	}
	value, ok, err := o.f.Memory.Preference(ctx, factPrefix+key)
	if err != nil {
		return intent.Response{}, err
	}
	if !ok {
		return intent.Response{Speech: fmt.Sprintf("I don't know your %s yet.", key)}, nil
	}
	return intent.Response{Speech: fmt.Sprintf("Your %s is %s.", key, value)}, nil
}

func (o *Orchestrator) openBook(ctx context.Context, req intent.Request) (intent.Response, error) {
	path := after(req.Command, "read book", "open book")
	if path == "" {
		return intent.Response{Speech: "Which book?"}, nil
	}
	pages, err := o.f.Books.LoadFile(ctx, path)
	if err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: fmt.Sprintf("Loaded the book, %d pages. Say start reading when you're ready.", pages)}, nil
}

func (o *Orchestrator) startReading(ctx context.Context, req intent.Request) (intent.Response, error) {
	text, err := o.f.Books.StartReading()
	if err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: text}, nil
}

func (o *Orchestrator) stopReading(ctx context.Context, req intent.Request) (intent.Response, error) {
	o.f.Books.StopReading(ctx)
	return intent.Response{Speech: "Stopped reading."}, nil
}

func (o *Orchestrator) nextPage(ctx context.Context, req intent.Request) (intent.Response, error) {
	text, err := o.f.Books.NextPage(ctx)
	if err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: text}, nil
}

func (o *Orchestrator) previousPage(ctx context.Context, req intent.Request) (intent.Response, error) {
	text, err := o.f.Books.PreviousPage(ctx)
	if err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: text}, nil
}

func (o *Orchestrator) goToPage(ctx context.Context, req intent.Request) (intent.Response, error) {
	m := pageNumberPattern.FindString(req.Command)
	if m == "" {
		return intent.Response{Speech: "Which page?"}, nil
	}
	page, _ := strconv.Atoi(m)
	text, err := o.f.Books.GoToPage(ctx, page)
	if err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: text}, nil
}

func (o *Orchestrator) addBookmark(ctx context.Context, req intent.Request) (intent.Response, error) {
	if err := o.f.Books.AddBookmark(ctx, "bookmark"); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "Bookmark saved."}, nil
}

func (o *Orchestrator) goToBookmark(ctx context.Context, req intent.Request) (intent.Response, error) {
	status, err := o.f.Books.GoToBookmark(ctx, "bookmark")
	if err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: status}, nil
}

func (o *Orchestrator) summarizePage(ctx context.Context, req intent.Request) (intent.Response, error) {
	text, _, _, err := o.f.Books.CurrentPage()
	if err != nil {
		return intent.Response{}, err
	}
	resp, err := o.f.Brain.Reply(ctx, brain.Request{
		Input: "Summarize this in 2 sentences: " + text,
	})
	if err != nil {
		o.metrics.BrainErrors.WithLabelValues(o.f.Brain.Name(), "reply").Inc()
		return intent.Response{}, err
	}
	return intent.Response{Speech: resp.Text}, nil
}

func (o *Orchestrator) readingSpeed(ctx context.Context, req intent.Request) (intent.Response, error) {
	name := "normal"
	switch {
	case strings.Contains(req.Command, "slow"):
		name = "slow"
	case strings.Contains(req.Command, "fast"):
		name = "fast"
	}
	o.f.Books.SetSpeed(name)
	return intent.Response{Speech: "Reading speed set to " + name + "."}, nil
}

func (o *Orchestrator) bookStatus(ctx context.Context, req intent.Request) (intent.Response, error) {
	return intent.Response{Speech: o.f.Books.Progress()}, nil
}

func (o *Orchestrator) mood(ctx context.Context, req intent.Request) (intent.Response, error) {
	dominant := o.f.Emotion.DominantEmotion()
	speech := "You've seemed steady lately."
	if dominant != "" && dominant != "neutral" {
		speech = fmt.Sprintf("You've seemed %s lately.", dominant)
	}
	if o.f.Emotion.NeedsSupport() {
		speech += " I'm here if you want to talk."
	}
	return intent.Response{Speech: speech}, nil
}

func (o *Orchestrator) feeling(ctx context.Context, req intent.Request) (intent.Response, error) {
	history := o.f.Emotion.History()
	if len(history) == 0 {
		return intent.Response{Speech: "Tell me more about how you feel."}, nil
	}
	last := history[len(history)-1]
	return intent.Response{Speech: emotion.EmpatheticResponse(last.Emotion, last.Intensity)}, nil
}

func (o *Orchestrator) suggest(ctx context.Context, req intent.Request) (intent.Response, error) {
	if suggestions := o.f.Predict.ProactiveSuggestions(); len(suggestions) > 0 {
		return intent.Response{Speech: suggestions[0]}, nil
	}
	return intent.Response{Speech: emotion.MoodAction(o.f.Emotion.DominantEmotion())}, nil
}

func (o *Orchestrator) usualPattern(ctx context.Context, req intent.Request) (intent.Response, error) {
	p, ok := o.f.Predict.Predict()
	if !ok {
		return intent.Response{Speech: "I haven't noticed a pattern yet."}, nil
	}
	return intent.Response{Speech: fmt.Sprintf("You usually %s around this time.", strings.ReplaceAll(p.Action, "_", " "))}, nil
}

func (o *Orchestrator) useProvider(name string) intent.Handler {
	return func(ctx context.Context, req intent.Request) (intent.Response, error) {
		sw, ok := o.f.Brain.(*brain.Switchable)
		if !ok {
			return intent.Response{Speech: "I can't switch providers right now."}, nil
		}
		if name == "openai" {
			if a, found := sw.Adapter("openai"); found {
				if oa, isOpenAI := a.(*brain.OpenAIAdapter); isOpenAI && !oa.HasKey() {
					return intent.Response{Speech: "Please set your API key first."}, nil
				}
			}
		}
		if !sw.Use(name) {
			return intent.Response{Speech: name + " is not configured."}, nil
		}
		return intent.Response{Speech: "Switched to " + name + "."}, nil
	}
}

// setAPIKey saves a spoken key and activates the hosted provider. Speech
// recognizers insert spaces inside tokens, so the key is squeezed first.
func (o *Orchestrator) setAPIKey(ctx context.Context, req intent.Request) (intent.Response, error) {
	key := strings.ReplaceAll(after(req.Command, "set api key to", "set api key"), " ", "")
	if key == "" {
		return intent.Response{Speech: "Please provide an API key."}, nil
	}
	if err := o.f.Memory.SetPreference(ctx, APIKeyPreference, key); err != nil {
		return intent.Response{}, err
	}
	if sw, ok := o.f.Brain.(*brain.Switchable); ok {
		if a, found := sw.Adapter("openai"); found {
			if oa, isOpenAI := a.(*brain.OpenAIAdapter); isOpenAI {
				oa.SetAPIKey(key)
				sw.Use("openai")
			}
		}
	}
	return intent.Response{Speech: "API key saved."}, nil
}

func (o *Orchestrator) useFile(ctx context.Context, req intent.Request) (intent.Response, error) {
	path := after(req.Command, "use file", "work on file")
	if path == "" {
		return intent.Response{Speech: "Which file?"}, nil
	}
	if prev, ok, _ := o.f.Memory.Preference(ctx, mediaFileKey); ok {
		if err := o.f.Memory.SetPreference(ctx, mediaPrevFileKey, prev); err != nil {
			return intent.Response{}, err
		}
	}
	if err := o.f.Memory.SetPreference(ctx, mediaFileKey, path); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "I'll work on " + filepath.Base(path) + "."}, nil
}

// withMediaFile resolves the current working file before running fn.
func (o *Orchestrator) withMediaFile(fn func(ctx context.Context, file string, req intent.Request) (string, error)) intent.Handler {
	return func(ctx context.Context, req intent.Request) (intent.Response, error) {
		file, ok, err := o.f.Memory.Preference(ctx, mediaFileKey)
		if err != nil {
			return intent.Response{}, err
		}
		if !ok {
			return intent.Response{Speech: "Tell me which file to use first. Say: use file, then the path."}, nil
		}
		speech, err := fn(ctx, file, req)
		if err != nil {
			return intent.Response{}, err
		}
		return intent.Response{Speech: speech}, nil
	}
}

func (o *Orchestrator) prevMediaFile(ctx context.Context) (string, bool) {
	prev, ok, err := o.f.Memory.Preference(ctx, mediaPrevFileKey)
	return prev, err == nil && ok
}

// derived builds an output path next to the input.
func derived(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_" + suffix + ext
}

func (o *Orchestrator) trimVideo(ctx context.Context, file string, req intent.Request) (string, error) {
	out := derived(file, "trimmed")
	if err := o.f.Editor.Trim(ctx, file, out, "00:00:00", "00:00:10"); err != nil {
		return "", err
	}
	return "Trimmed the first ten seconds into " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) mergeVideos(ctx context.Context, file string, req intent.Request) (string, error) {
	prev, ok := o.prevMediaFile(ctx)
	if !ok {
		return "I need two files to merge. Say use file twice, once per video.", nil
	}
	out := derived(file, "merged")
	if err := o.f.Editor.Merge(ctx, []string{prev, file}, out); err != nil {
		return "", err
	}
	return "Merged both videos into " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) addMusic(ctx context.Context, file string, req intent.Request) (string, error) {
	music, ok := o.prevMediaFile(ctx)
	if !ok {
		return "I need the music file too. Say use file twice, video last.", nil
	}
	out := derived(file, "withaudio")
	if err := o.f.Editor.AddAudio(ctx, file, music, out); err != nil {
		return "", err
	}
	return "Added the music to " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) speedVideo(factor float64, suffix string) func(ctx context.Context, file string, req intent.Request) (string, error) {
	return func(ctx context.Context, file string, req intent.Request) (string, error) {
		out := derived(file, suffix)
		if err := o.f.Editor.ChangeSpeed(ctx, file, out, factor); err != nil {
			return "", err
		}
		return "Saved the result as " + filepath.Base(out) + ".", nil
	}
}

func (o *Orchestrator) stabilizeVideo(ctx context.Context, file string, req intent.Request) (string, error) {
	out := derived(file, "stable")
	if err := o.f.Stabilizer.Stabilize(ctx, file, out); err != nil {
		return "", err
	}
	return "Stabilized the video into " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) deshakeVideo(ctx context.Context, file string, req intent.Request) (string, error) {
	out := derived(file, "deshaken")
	if err := o.f.Stabilizer.Deshake(ctx, file, out); err != nil {
		return "", err
	}
	return "Removed the shake, saved as " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) enhanceVideo(ctx context.Context, file string, req intent.Request) (string, error) {
	out := derived(file, "enhanced")
	if err := o.f.Editor.Enhance(ctx, file, out); err != nil {
		return "", err
	}
	return "Enhanced the video into " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) denoiseVideo(ctx context.Context, file string, req intent.Request) (string, error) {
	out := derived(file, "denoised")
	if err := o.f.Editor.Denoise(ctx, file, out); err != nil {
		return "", err
	}
	return "Cleaned up the noise, saved as " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) readTextFromImage(ctx context.Context, file string, req intent.Request) (string, error) {
	text, err := o.f.OCR.ExtractText(ctx, file)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "I couldn't find any text in the image.", nil
	}
	return "The image says: " + text, nil
}

func (o *Orchestrator) translateTextFromImage(ctx context.Context, file string, req intent.Request) (string, error) {
	text, err := o.f.OCR.ExtractText(ctx, file)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "I couldn't find any text in the image.", nil
	}
	target := after(req.Command, " into ", " to ")
	if target == "" {
		target = "English"
	}
	resp, err := o.f.Brain.Reply(ctx, brain.Request{
		Input: fmt.Sprintf("Translate this to %s, reply with the translation only: %s", target, text),
	})
	if err != nil {
		o.metrics.BrainErrors.WithLabelValues(o.f.Brain.Name(), "reply").Inc()
		return "", err
	}
	return resp.Text, nil
}

func (o *Orchestrator) rotateImage(ctx context.Context, file string, req intent.Request) (string, error) {
	degrees := 90
	if m := pageNumberPattern.FindString(req.Command); m != "" {
		degrees, _ = strconv.Atoi(m)
	}
	out := derived(file, "rotated")
	if err := o.f.Editor.Rotate(ctx, file, out, degrees); err != nil {
		return "", err
	}
	return fmt.Sprintf("Rotated by %d degrees into %s.", degrees, filepath.Base(out)), nil
}

func (o *Orchestrator) cropImage(ctx context.Context, file string, req intent.Request) (string, error) {
	nums := pageNumberPattern.FindAllString(req.Command, 4)
	if len(nums) < 2 {
		return "Say: crop image to 300 by 200.", nil
	}
	width, _ := strconv.Atoi(nums[0])
	height, _ := strconv.Atoi(nums[1])
	x, y := 0, 0
	if len(nums) == 4 {
		x, _ = strconv.Atoi(nums[2])
		y, _ = strconv.Atoi(nums[3])
	}
	out := derived(file, "cropped")
	if err := o.f.Editor.Crop(ctx, file, out, width, height, x, y); err != nil {
		return "", err
	}
	return fmt.Sprintf("Cropped to %dx%d into %s.", width, height, filepath.Base(out)), nil
}

func (o *Orchestrator) applyImageFilter(ctx context.Context, file string, req intent.Request) (string, error) {
	var name string
	for _, f := range media.FilterNames() {
		if strings.Contains(req.Command, f) {
			name = f
			break
		}
	}
	if name == "" {
		return "Which filter? I know " + strings.Join(media.FilterNames(), ", ") + ".", nil
	}
	out := derived(file, name)
	if err := o.f.Editor.ApplyFilter(ctx, file, out, name); err != nil {
		return "", err
	}
	return "Applied the " + name + " filter into " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) scanDocument(ctx context.Context, file string, req intent.Request) (string, error) {
	doc, err := o.f.OCR.ScanDocument(ctx, file)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("The document has %d words across %d paragraphs.", doc.WordCount, len(doc.Paragraphs)), nil
}

func (o *Orchestrator) extractEmails(ctx context.Context, file string, req intent.Request) (string, error) {
	data, err := o.f.OCR.ExtractData(ctx, file)
	if err != nil {
		return "", err
	}
	if len(data.Emails) == 0 {
		return "No email addresses found.", nil
	}
	return "I found: " + strings.Join(data.Emails, ", "), nil
}

func (o *Orchestrator) docPath(name string) string {
	dir := o.cfg.DocumentDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, name)
}

func (o *Orchestrator) createDocument(ctx context.Context, req intent.Request) (intent.Response, error) {
	content := after(req.Command, "saying", "with text")
	if content == "" {
		content = "Write your content here."
	}
	path := o.docPath("document.html")
	if err := docgen.WriteDocument(content, path, "Document"); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "I wrote the document to " + path + "."}, nil
}

func (o *Orchestrator) createResume(ctx context.Context, req intent.Request) (intent.Response, error) {
	name := "Your Name"
	if v, ok, _ := o.f.Memory.Preference(ctx, factPrefix+"name"); ok {
		name = v
	}
	r := docgen.Resume{
		Name:    name,
		Summary: "A short professional summary.",
		Skills:  []string{"communication", "problem solving"},
	}
	path := o.docPath("resume.html")
	if err := docgen.CreateResume(r, path); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "I created a resume draft at " + path + ". Tell me facts like: learn my name is Ada."}, nil
}

func (o *Orchestrator) createInvoice(ctx context.Context, req intent.Request) (intent.Response, error) {
	inv := docgen.Invoice{
		Number:     "0001",
		Date:       o.now().Format("2006-01-02"),
		ClientName: "Client",
		Items:      []docgen.InvoiceItem{{Description: "Services", Price: 100, Quantity: 1}},
	}
	path := o.docPath("invoice.html")
	if err := docgen.CreateInvoice(inv, path); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "I created an invoice draft at " + path + "."}, nil
}

func musicStyle(command string) string {
	switch {
	case strings.Contains(command, "sad"):
		return "sad"
	case strings.Contains(command, "calm"), strings.Contains(command, "relax"):
		return "calm"
	default:
		return "happy"
	}
}

func (o *Orchestrator) createSong(ctx context.Context, file string, req intent.Request) (string, error) {
	out := derived(file, "song")
	if err := o.f.Audio.CreateSong(ctx, file, musicStyle(req.Command), out); err != nil {
		return "", err
	}
	return "Your song is ready at " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) generateMusic(ctx context.Context, req intent.Request) (intent.Response, error) {
	out := o.docPath("instrumental.mp3")
	if err := o.f.Audio.GenerateInstrumental(ctx, musicStyle(req.Command), out); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "Generated an instrumental at " + out + "."}, nil
}

func (o *Orchestrator) addBackgroundMusic(ctx context.Context, file string, req intent.Request) (string, error) {
	music, ok := o.prevMediaFile(ctx)
	if !ok {
		return "I need the music file too. Say use file twice, voice track last.", nil
	}
	out := derived(file, "withmusic")
	if err := o.f.Audio.AddBackgroundMusic(ctx, file, music, out); err != nil {
		return "", err
	}
	return "Added background music, saved as " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) changePitch(ctx context.Context, file string, req intent.Request) (string, error) {
	out := derived(file, "pitched")
	if err := o.f.Audio.ChangePitch(ctx, file, out, 1.5); err != nil {
		return "", err
	}
	return "Changed the pitch, saved as " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) addEcho(ctx context.Context, file string, req intent.Request) (string, error) {
	out := derived(file, "echo")
	var err error
	if strings.Contains(req.Command, "reverb") {
		err = o.f.Audio.AddReverb(ctx, file, out)
	} else {
		err = o.f.Audio.AddEcho(ctx, file, out)
	}
	if err != nil {
		return "", err
	}
	return "Done, saved as " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) createMeme(ctx context.Context, file string, req intent.Request) (string, error) {
	caption := after(req.Command, "saying")
	if caption == "" {
		caption = "when it finally works"
	}
	out := derived(file, "meme")
	if err := o.f.Memes.CaptionImage(ctx, file, caption, "", out); err != nil {
		return "", err
	}
	return "Meme ready at " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) captionVideo(ctx context.Context, file string, req intent.Request) (string, error) {
	caption := after(req.Command, "saying")
	if caption == "" {
		return "What should the caption say?", nil
	}
	out := derived(file, "captioned")
	if err := o.f.Memes.CaptionVideoFrame(ctx, file, "00:00:01", caption, "", out); err != nil {
		return "", err
	}
	return "Captioned frame saved as " + filepath.Base(out) + ".", nil
}

func (o *Orchestrator) syncLearnings(ctx context.Context, req intent.Request) (intent.Response, error) {
	enabled, err := o.f.FedSync.Enabled(ctx)
	if err != nil {
		return intent.Response{}, err
	}
	if !enabled {
		return intent.Response{Speech: "Federated learning is off. Say enable federated learning first."}, nil
	}
	if err := o.f.FedSync.Sync(ctx, o.classifier.Rules()); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "Learnings synced with the shared model."}, nil
}

func (o *Orchestrator) setFederated(enabled bool) intent.Handler {
	return func(ctx context.Context, req intent.Request) (intent.Response, error) {
		if err := o.f.FedSync.SetEnabled(ctx, enabled); err != nil {
			return intent.Response{}, err
		}
		if enabled {
			return intent.Response{Speech: "Federated learning enabled. Only anonymous statistics are shared."}, nil
		}
		return intent.Response{Speech: "Federated learning disabled."}, nil
	}
}

func (o *Orchestrator) conversationMode(on bool) intent.Handler {
	return func(ctx context.Context, req intent.Request) (intent.Response, error) {
		o.state.SetConversationMode(on)
		if on {
			return intent.Response{Speech: "Conversation mode on. You can talk to me without the wake word."}, nil
		}
		return intent.Response{Speech: "Conversation mode off."}, nil
	}
}

func (o *Orchestrator) setWakeWord(ctx context.Context, req intent.Request) (intent.Response, error) {
	word := after(req.Command, "to ")
	if !o.state.SetWakeWord(word) {
		return intent.Response{Speech: "Say: change wake word to, then the new word."}, nil
	}
	if err := o.f.Memory.SetPreference(ctx, "wake_word", word); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "From now on, call me " + word + "."}, nil
}

func (o *Orchestrator) takeNote(ctx context.Context, req intent.Request) (intent.Response, error) {
	text := after(req.Command, "take a note")
	text = strings.TrimSpace(strings.TrimPrefix(text, ":"))
	if text == "" {
		return intent.Response{Speech: "What should the note say?"}, nil
	}
	if err := o.f.Memory.SaveNote(ctx, text); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "Noted."}, nil
}

func (o *Orchestrator) readNotes(ctx context.Context, req intent.Request) (intent.Response, error) {
	notes, err := o.f.Memory.RecentNotes(ctx, 3)
	if err != nil {
		return intent.Response{}, err
	}
	if len(notes) == 0 {
		return intent.Response{Speech: "You don't have any notes yet."}, nil
	}
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = n.Text
	}
	return intent.Response{Speech: "Your notes: " + strings.Join(parts, "; ") + "."}, nil
}

func (o *Orchestrator) goodMorning(ctx context.Context, req intent.Request) (intent.Response, error) {
	speech := "Good morning!"
	if suggestions := o.f.Predict.ProactiveSuggestions(); len(suggestions) > 0 {
		speech += " " + suggestions[0]
	}
	return intent.Response{Speech: speech}, nil
}

func (o *Orchestrator) goodNight(ctx context.Context, req intent.Request) (intent.Response, error) {
	return intent.Response{Speech: "Good night, sleep well."}, nil
}

func (o *Orchestrator) askBrain(ctx context.Context, req intent.Request) (intent.Response, error) {
	question := after(req.Command, "tell me about", "ask")
	if question == "" {
		question = req.Command
	}
	resp, err := o.f.Brain.Reply(ctx, brain.Request{Input: question, Context: req.Context})
	if err != nil {
		o.metrics.BrainErrors.WithLabelValues(o.f.Brain.Name(), "reply").Inc()
		return intent.Response{}, err
	}
	return intent.Response{Speech: resp.Text}, nil
}

func (o *Orchestrator) newsCommand(ctx context.Context, req intent.Request) (intent.Response, error) {
	var articles []news.Article
	var err error
	switch {
	case strings.Contains(req.Command, "technology"), strings.Contains(req.Command, "tech"):
		articles, err = o.f.News.TopHeadlines(ctx, "technology")
	case strings.Contains(req.Command, "sports"):
		articles, err = o.f.News.TopHeadlines(ctx, "sports")
	case strings.Contains(req.Command, "business"):
		articles, err = o.f.News.TopHeadlines(ctx, "business")
	case strings.Contains(req.Command, "search"):
		query := after(req.Command, "search for", "search", "about")
		articles, err = o.f.News.Search(ctx, query)
	default:
		articles, err = o.f.News.TopHeadlines(ctx, "")
	}
	if err != nil {
		return intent.Response{}, err
	}
	if len(articles) == 0 {
		return intent.Response{Speech: "I couldn't fetch any news right now."}, nil
	}
	return intent.Response{Speech: news.Headlines(articles)}, nil
}

func (o *Orchestrator) summarizeNews(ctx context.Context, req intent.Request) (intent.Response, error) {
	articles, err := o.f.News.Personalized(ctx, o.f.Memory)
	if err != nil {
		return intent.Response{}, err
	}
	if len(articles) == 0 {
		return intent.Response{Speech: "I couldn't fetch any news right now."}, nil
	}
	summary, err := news.Summarize(ctx, o.f.Brain, articles[0])
	if err != nil {
		o.metrics.BrainErrors.WithLabelValues(o.f.Brain.Name(), "reply").Inc()
		return intent.Response{}, err
	}
	return intent.Response{Speech: summary}, nil
}

func (o *Orchestrator) personalizedNews(ctx context.Context, req intent.Request) (intent.Response, error) {
	articles, err := o.f.News.Personalized(ctx, o.f.Memory)
	if err != nil {
		return intent.Response{}, err
	}
	if len(articles) == 0 {
		return intent.Response{Speech: "No personalized news available."}, nil
	}
	titles := make([]string, 0, 3)
	for i, a := range articles {
		if i >= 3 {
			break
		}
		titles = append(titles, a.Title)
	}
	return intent.Response{Speech: "Your personalized news: " + strings.Join(titles, ". ") + "."}, nil
}

func (o *Orchestrator) setNewsCategories(ctx context.Context, req intent.Request) (intent.Response, error) {
	raw := after(req.Command, "set news categories to", "set news category to", "set news categories", "set news category")
	if raw == "" {
		return intent.Response{Speech: "Which categories? Say: set news categories to technology and sports."}, nil
	}
	raw = strings.ReplaceAll(raw, " and ", ",")
	cats := strings.Split(raw, ",")
	if err := news.SetPreferredCategories(ctx, o.f.Memory, cats); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "I'll prioritize " + strings.Join(news.PreferredCategories(ctx, o.f.Memory), ", ") + " news."}, nil
}

func (o *Orchestrator) trending(ctx context.Context, req intent.Request) (intent.Response, error) {
	topics := news.TrendingTopics()
	if len(topics) > 5 {
		topics = topics[:5]
	}
	return intent.Response{Speech: "Trending now: " + strings.Join(topics, ", ") + "."}, nil
}

func (o *Orchestrator) tellTime(ctx context.Context, req intent.Request) (intent.Response, error) {
	now := o.now()
	return intent.Response{Speech: fmt.Sprintf("It's %d:%02d.", now.Hour(), now.Minute())}, nil
}

func (o *Orchestrator) calculate(ctx context.Context, req intent.Request) (intent.Response, error) {
	m := calcPattern.FindStringSubmatch(req.Command)
	if m == nil {
		return intent.Response{Speech: "Say something like: calculate 12 plus 7."}, nil
	}
	a, _ := strconv.ParseFloat(m[1], 64)
	b, _ := strconv.ParseFloat(m[3], 64)
	var result float64
	switch m[2] {
	case "plus", "+":
		result = a + b
	case "minus", "-":
		result = a - b
	case "times", "multiplied by", "*", "x":
		result = a * b
	case "divided by", "/":
		if b == 0 {
			return intent.Response{Speech: "I can't divide by zero."}, nil
		}
		result = a / b
	}
	return intent.Response{Speech: fmt.Sprintf("That's %g.", result)}, nil
}

func (o *Orchestrator) playMusic(ctx context.Context, req intent.Request) (intent.Response, error) {
	if err := o.f.Launcher.Open(ctx, "spotify"); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "Playing music."}, nil
}

func (o *Orchestrator) webSearch(ctx context.Context, req intent.Request) (intent.Response, error) {
	query := after(req.Command, "search for", "search")
	if query == "" {
		return intent.Response{Speech: "Search for what?"}, nil
	}
	target := "https://www.google.com/search?q=" + url.QueryEscape(query)
	if err := o.f.Launcher.Open(ctx, target); err != nil {
		return intent.Response{}, err
	}
	return intent.Response{Speech: "Searching the web for " + query + "."}, nil
}

func (o *Orchestrator) tellDate(ctx context.Context, req intent.Request) (intent.Response, error) {
	return intent.Response{Speech: "Today is " + o.now().Format("Monday, January 2") + "."}, nil
}
