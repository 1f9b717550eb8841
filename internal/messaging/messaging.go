// Package messaging builds WhatsApp send links and resolves contacts
// stored as preferences.
package messaging

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const sendBase = "https://api.whatsapp.com/send"

var nonDigits = regexp.MustCompile(`[^\d+]`)

// ContactStore is the slice of the memory store messaging needs.
type ContactStore interface {
	SetPreference(ctx context.Context, key, value string) error
	Preference(ctx context.Context, key string) (string, bool, error)
}

// Opener launches a URL on the host. *apps.Launcher satisfies it.
type Opener interface {
	Open(ctx context.Context, target string) error
}

type Messenger struct {
	store  ContactStore
	opener Opener
}

func NewMessenger(store ContactStore, opener Opener) *Messenger {
	return &Messenger{store: store, opener: opener}
}

func contactKey(name string) string {
	return "contact:" + strings.ToLower(strings.TrimSpace(name))
}

// SaveContact stores a phone number under a spoken name.
func (m *Messenger) SaveContact(ctx context.Context, name, number string) error {
	number = normalizeNumber(number)
	if number == "" {
		return fmt.Errorf("contact %q: empty phone number", name)
	}
	return m.store.SetPreference(ctx, contactKey(name), number)
}

// ContactNumber looks up the stored number for a name.
func (m *Messenger) ContactNumber(ctx context.Context, name string) (string, error) {
	number, ok, err := m.store.Preference(ctx, contactKey(name))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no saved number for %q", name)
	}
	return number, nil
}

// MessageLink builds the wa.me style send link for a phone and text.
func MessageLink(phone, text string) string {
	phone = normalizeNumber(phone)
	v := url.Values{}
	v.Set("phone", phone)
	if text != "" {
		v.Set("text", text)
	}
	return sendBase + "?" + v.Encode()
}

// SendMessage opens a prefilled chat to the given phone number.
func (m *Messenger) SendMessage(ctx context.Context, phone, text string) error {
	phone = normalizeNumber(phone)
	if phone == "" {
		return fmt.Errorf("empty phone number")
	}
	return m.opener.Open(ctx, MessageLink(phone, text))
}

// SendToContact resolves a contact name and opens a prefilled chat.
func (m *Messenger) SendToContact(ctx context.Context, name, text string) error {
	number, err := m.ContactNumber(ctx, name)
	if err != nil {
		return err
	}
	return m.opener.Open(ctx, MessageLink(number, text))
}

// OpenChat opens the chat with a contact without any prefilled text.
func (m *Messenger) OpenChat(ctx context.Context, name string) error {
	return m.SendToContact(ctx, name, "")
}

// SetAutoReply stores the message used when auto replies are on. An empty
// message disables them.
func (m *Messenger) SetAutoReply(ctx context.Context, message string) error {
	return m.store.SetPreference(ctx, "auto_reply", strings.TrimSpace(message))
}

// AutoReply returns the configured auto reply, if any.
func (m *Messenger) AutoReply(ctx context.Context) (string, bool, error) {
	msg, ok, err := m.store.Preference(ctx, "auto_reply")
	if err != nil || !ok || msg == "" {
		return "", false, err
	}
	return msg, true, nil
}

func normalizeNumber(number string) string {
	number = nonDigits.ReplaceAllString(number, "")
	return strings.TrimPrefix(number, "+")
}
