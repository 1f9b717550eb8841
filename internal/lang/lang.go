package lang

import (
	"strings"
	"sync"
)

// Language describes one supported recognition language.
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
	Model  string `json:"model"`
}

var supported = []Language{
	{Code: "en", Name: "English", Locale: "en-US", Model: "vosk-model-small-en-us-0.15"},
	{Code: "es", Name: "Spanish", Locale: "es-ES", Model: "vosk-model-small-es-0.42"},
	{Code: "fr", Name: "French", Locale: "fr-FR", Model: "vosk-model-small-fr-0.22"},
	{Code: "de", Name: "German", Locale: "de-DE", Model: "vosk-model-small-de-0.15"},
	{Code: "zh", Name: "Chinese", Locale: "zh-CN", Model: "vosk-model-small-cn-0.22"},
	{Code: "hi", Name: "Hindi", Locale: "hi-IN", Model: "vosk-model-small-hi-0.22"},
	{Code: "ar", Name: "Arabic", Locale: "ar-AR", Model: "vosk-model-small-ar-0.22"},
	{Code: "pt", Name: "Portuguese", Locale: "pt-BR", Model: "vosk-model-small-pt-0.3"},
	{Code: "ru", Name: "Russian", Locale: "ru-RU", Model: "vosk-model-small-ru-0.22"},
	{Code: "ja", Name: "Japanese", Locale: "ja-JP", Model: "vosk-model-small-ja-0.22"},
	{Code: "ko", Name: "Korean", Locale: "ko-KR", Model: "vosk-model-small-ko-0.22"},
	{Code: "it", Name: "Italian", Locale: "it-IT", Model: "vosk-model-small-it-0.22"},
	{Code: "nl", Name: "Dutch", Locale: "nl-NL", Model: "vosk-model-small-nl-0.22"},
	{Code: "tr", Name: "Turkish", Locale: "tr-TR", Model: "vosk-model-small-tr-0.3"},
}

// commandTranslations maps localized command keywords to their English forms.
var commandTranslations = map[string]map[string]string{
	"es": {
		"llamar": "call", "abrir": "open", "tiempo": "time", "noticias": "news",
		"clima": "weather", "música": "music", "volumen": "volume", "linterna": "flashlight",
	},
	"fr": {
		"appeler": "call", "ouvrir": "open", "temps": "time", "nouvelles": "news",
		"météo": "weather", "musique": "music", "volume": "volume", "lampe": "flashlight",
	},
	"de": {
		"anrufen": "call", "öffnen": "open", "zeit": "time", "nachrichten": "news",
		"wetter": "weather", "musik": "music", "lautstärke": "volume", "taschenlampe": "flashlight",
	},
	"pt": {
		"ligar": "call", "abrir": "open", "tempo": "time", "notícias": "news",
		"clima": "weather", "música": "music", "volume": "volume", "lanterna": "flashlight",
	},
	"hi": {
		"कॉल": "call", "खोलें": "open", "समय": "time", "समाचार": "news",
		"मौसम": "weather", "संगीत": "music", "वॉल्यूम": "volume", "टॉर्च": "flashlight",
	},
}

var localizedResponses = map[string]map[string]string{
	"greeting": {
		"en": "Hello! How can I help you?",
		"es": "¡Hola! ¿Cómo puedo ayudarte?",
		"fr": "Bonjour! Comment puis-je vous aider?",
		"de": "Hallo! Wie kann ich Ihnen helfen?",
		"zh": "你好！我能帮你什么？",
		"hi": "नमस्ते! मैं आपकी कैसे मदद कर सकता हूं?",
		"ar": "مرحبا! كيف يمكنني مساعدتك؟",
		"pt": "Olá! Como posso ajudá-lo?",
		"ru": "Привет! Чем могу помочь?",
		"ja": "こんにちは！どうすればいいですか？",
		"ko": "안녕하세요! 어떻게 도와드릴까요?",
	},
	"activated": {
		"en": "Voice assistant activated",
		"es": "Asistente de voz activado",
		"fr": "Assistant vocal activé",
		"de": "Sprachassistent aktiviert",
		"zh": "语音助手已激活",
		"hi": "वॉयस असिस्टेंट सक्रिय",
		"ar": "تم تنشيط المساعد الصوتي",
		"pt": "Assistente de voz ativado",
		"ru": "Голосовой помощник активирован",
		"ja": "音声アシスタントが有効になりました",
		"ko": "음성 비서가 활성화되었습니다",
	},
	"error": {
		"en": "Sorry, I didn't understand that",
		"es": "Lo siento, no entendí eso",
		"fr": "Désolé, je n'ai pas compris",
		"de": "Entschuldigung, das habe ich nicht verstanden",
		"zh": "对不起，我不明白",
		"hi": "क्षमा करें, मुझे समझ नहीं आया",
		"ar": "آسف، لم أفهم ذلك",
		"pt": "Desculpe, não entendi",
		"ru": "Извините, я не понял",
		"ja": "すみません、理解できませんでした",
		"ko": "죄송합니다. 이해하지 못했습니다",
	},
}

// Supported returns the recognition languages in a stable order.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether the language code has a recognition model.
func IsSupported(code string) bool {
	for _, l := range supported {
		if l.Code == code {
			return true
		}
	}
	return false
}

// ModelURL returns the download location for a language's recognition model.
func ModelURL(code string) string {
	for _, l := range supported {
		if l.Code == code {
			return "https://alphacephei.com/vosk/models/" + l.Model + ".zip"
		}
	}
	return ""
}

// Detect guesses the language of text from its dominant script. Latin-script
// languages are indistinguishable here and come back as English.
func Detect(text string) string {
	for _, r := range text {
		switch {
		case r >= 0x4E00 && r <= 0x9FA5:
			return "zh"
		case r >= 0x0600 && r <= 0x06FF:
			return "ar"
		case r >= 0x0900 && r <= 0x097F:
			return "hi"
		case r >= 0x3040 && r <= 0x309F:
			return "ja"
		case r >= 0xAC00 && r <= 0xD7AF:
			return "ko"
		case r >= 0x0400 && r <= 0x04FF:
			return "ru"
		}
	}
	return "en"
}

// TranslateCommand rewrites known command keywords into English so the
// dispatcher's rule table matches regardless of input language.
func TranslateCommand(command, fromLang string) string {
	translated := strings.ToLower(command)
	for from, to := range commandTranslations[fromLang] {
		translated = strings.ReplaceAll(translated, from, to)
	}
	return translated
}

// LocalizedResponse returns a canned response in the given language, falling
// back to English when no translation exists.
func LocalizedResponse(key, language string) string {
	byLang, ok := localizedResponses[key]
	if !ok {
		return ""
	}
	if msg, ok := byLang[language]; ok {
		return msg
	}
	return byLang["en"]
}

// Selector holds the active language behind a lock so the recognizer and the
// dispatcher agree on it.
type Selector struct {
	mu      sync.RWMutex
	current string
}

func NewSelector() *Selector {
	return &Selector{current: "en"}
}

func (s *Selector) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set switches the active language; unknown codes are rejected.
func (s *Selector) Set(code string) bool {
	if !IsSupported(code) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = code
	return true
}
