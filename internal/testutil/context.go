package testutil

import (
	"strings"

	tele "gopkg.in/telebot.v3"
)

// FakeContext is a telebot context that records replies instead of calling Telegram.
// Methods not overridden here panic through the nil embedded Context.
type FakeContext struct {
	tele.Context

	User     *tele.User
	Msg      *tele.Message
	Cb       *tele.Callback
	Sent     []string
	Edited   []string
	Replies  []string // sent and edited texts in order
	Markups  []*tele.ReplyMarkup
	Answered []*tele.CallbackResponse

	values map[string]interface{}
}

// NewTextContext simulates a text message from userID
func NewTextContext(userID int64, text string) *FakeContext {
	msg := &tele.Message{Text: text}
	if strings.HasPrefix(text, "/") {
		if i := strings.IndexByte(text, ' '); i > 0 {
			msg.Payload = strings.TrimSpace(text[i+1:])
		}
	}
	return &FakeContext{
		User: &tele.User{ID: userID},
		Msg:  msg,
	}
}

// NewCallbackContext simulates an inline button press from userID
func NewCallbackContext(userID int64, unique, data string) *FakeContext {
	return &FakeContext{
		User: &tele.User{ID: userID},
		Msg:  &tele.Message{},
		Cb:   &tele.Callback{ID: "cb", Unique: unique, Data: data},
	}
}

// Authorized marks the context the way the auth middleware does
func (c *FakeContext) Authorized(key string, ok bool) *FakeContext {
	c.Set(key, ok)
	return c
}

func (c *FakeContext) Sender() *tele.User       { return c.User }
func (c *FakeContext) Message() *tele.Message   { return c.Msg }
func (c *FakeContext) Callback() *tele.Callback { return c.Cb }

func (c *FakeContext) Text() string {
	if c.Msg == nil {
		return ""
	}
	return c.Msg.Text
}

func (c *FakeContext) Send(what interface{}, opts ...interface{}) error {
	c.Sent = append(c.Sent, toText(what))
	c.Replies = append(c.Replies, toText(what))
	c.recordMarkup(opts)
	return nil
}

func (c *FakeContext) Edit(what interface{}, opts ...interface{}) error {
	c.Edited = append(c.Edited, toText(what))
	c.Replies = append(c.Replies, toText(what))
	c.recordMarkup(opts)
	return nil
}

func (c *FakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		c.Answered = append(c.Answered, &tele.CallbackResponse{})
		return nil
	}
	c.Answered = append(c.Answered, resp...)
	return nil
}

func (c *FakeContext) Set(key string, val interface{}) {
	if c.values == nil {
		c.values = make(map[string]interface{})
	}
	c.values[key] = val
}

func (c *FakeContext) Get(key string) interface{} {
	return c.values[key]
}

// LastText returns the latest sent or edited message text
func (c *FakeContext) LastText() string {
	if len(c.Replies) == 0 {
		return ""
	}
	return c.Replies[len(c.Replies)-1]
}

// LastMarkup returns the keyboard of the latest sent or edited message
func (c *FakeContext) LastMarkup() *tele.ReplyMarkup {
	if len(c.Markups) == 0 {
		return nil
	}
	return c.Markups[len(c.Markups)-1]
}

// Buttons lists the callback data Telegram would send back for every inline
// button in the latest keyboard, in the "\f<unique>|<data>" form
func (c *FakeContext) Buttons() []string {
	markup := c.LastMarkup()
	if markup == nil {
		return nil
	}
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.Unique == "" {
				continue
			}
			data := "\f" + btn.Unique
			if btn.Data != "" {
				data += "|" + btn.Data
			}
			out = append(out, data)
		}
	}
	return out
}

func (c *FakeContext) recordMarkup(opts []interface{}) {
	for _, opt := range opts {
		if m, ok := opt.(*tele.ReplyMarkup); ok {
			c.Markups = append(c.Markups, m)
		}
	}
}

func toText(what interface{}) string {
	if s, ok := what.(string); ok {
		return s
	}
	return ""
}
