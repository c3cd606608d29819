package main

import (
	"bufio"
	"chat-desk/domain"
	"chat-desk/domain/event"
	"chat-desk/pagination"
	"chat-desk/runtime"
	"chat-desk/session"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

const help = `Commands:
  /countries                 list dial codes
  /login <dial> <phone>      request an OTP, e.g. /login +1 555 123 4567
  /otp <code>                verify the OTP
  /logout
  /new <title>               create a chatroom
  /rooms                     list chatrooms
  /search <query>            filter chatrooms by title
  /open <id>                 open a chatroom (short id or # from /rooms)
  /more                      load older messages
  /image <path> [caption]    send an image
  /find <terms>              full-text search in the open chatroom, or everywhere
  /delete <id>               delete a chatroom (short id or # from /rooms)
  /quit
Anything else is sent as a message in the open chatroom.`

// console is a line-oriented front-end over the engine.
// It mirrors the screens of the web client: login, dashboard and chatroom.
type console struct {
	mu      sync.Mutex
	engine  *runtime.Engine
	in      io.Reader
	out     io.Writer
	colours bool

	path    string
	current domain.ChatroomID
	window  *pagination.Window
}

func newConsole(engine *runtime.Engine, in io.Reader, out io.Writer, colours bool) *console {
	c := &console{engine: engine, in: in, out: out, colours: colours}
	engine.Conversations.AddSinks(c)
	return c
}

func (c *console) Run(ctx context.Context) error {
	c.navigate("/")
	c.println(help)

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		errs <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errs
			}
			if quit := c.handle(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

// handle runs one command line and reports whether the console should exit.
func (c *console) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.send(line, nil)
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		c.println(help)
	case "/countries":
		c.countries(ctx)
	case "/login":
		c.login(ctx, arg)
	case "/otp":
		c.otp(ctx, arg)
	case "/logout":
		c.engine.Auth.Logout()
		c.leave()
		c.navigate("/dashboard")
	case "/new":
		c.create(arg)
	case "/rooms":
		if c.navigate("/dashboard") {
			c.rooms(c.engine.Conversations.ListChatrooms())
		}
	case "/search":
		if c.navigate("/dashboard") {
			c.engine.Filter.SetQuery(arg)
			c.info("Filtering on %q", arg)
		}
	case "/open":
		c.open(arg)
	case "/more":
		c.more()
	case "/image":
		c.image(arg)
	case "/find":
		c.find(ctx, arg)
	case "/delete":
		c.remove(arg)
	default:
		c.fail(fmt.Errorf("unknown command %s", command))
	}
	return false
}

// Consume prints what the assistant does in the open chatroom.
func (c *console) Consume(_ context.Context, e event.DomainEvent) error {
	c.mu.Lock()
	current, window := c.current, c.window
	if appended, ok := e.(event.MessageAppended); ok && window != nil && appended.Message.ChatroomID == current {
		window.Append(appended.Message)
	}
	c.mu.Unlock()

	if deleted, ok := e.(event.ChatroomDeleted); ok {
		if deleted.ID == current {
			c.leave()
		}
		return nil
	}
	if current == "" || e.ChatroomID() != current {
		return nil
	}
	switch evt := e.(type) {
	case event.MessageAppended:
		if evt.Message.Sender == domain.SenderAssistant {
			c.message(evt.Message)
		}
	case event.TypingChanged:
		if evt.Typing {
			c.info("Assistant is typing...")
		}
	case event.ReplyFailed:
		c.fail(fmt.Errorf("no reply: %w", evt.Cause))
	}
	return nil
}

// navigate applies the route guard and reports whether the requested screen is shown.
func (c *console) navigate(path string) bool {
	target, redirected := c.engine.Session.Redirect(path)
	c.mu.Lock()
	c.path = target
	c.mu.Unlock()
	if redirected {
		c.info("→ %s", target)
	}
	return target == path
}

func (c *console) countries(ctx context.Context) {
	list, err := c.engine.Countries.List(ctx)
	if err != nil {
		c.fail(err)
	}
	table := c.table([]string{"Country", "Dial code", "Region"})
	for _, country := range list {
		table.Append([]string{country.DisplayName, country.DialCode, country.RegionCode})
	}
	table.Render()
}

func (c *console) login(ctx context.Context, arg string) {
	dial, phone, _ := strings.Cut(arg, " ")
	c.info("Sending code to %s %s...", dial, domain.FormatPhone(strings.ReplaceAll(phone, " ", "")))
	if err := c.engine.Auth.RequestOTP(ctx, dial, phone); err != nil {
		c.fail(err)
		return
	}
	c.info("Code sent, use /otp <code>")
}

func (c *console) otp(ctx context.Context, code string) {
	user, err := c.engine.Auth.VerifyOTP(ctx, code)
	if err != nil {
		c.fail(err)
		return
	}
	c.info("Welcome %s %s", user.CountryCode, domain.FormatPhone(user.Phone))
	c.navigate(session.LoginPath)
}

func (c *console) create(title string) {
	if !c.navigate("/dashboard") {
		return
	}
	id, err := c.engine.Chat.CreateChatroom(title)
	if err != nil {
		c.fail(err)
		return
	}
	c.info("Chatroom %s created", shortID(id))
	c.open(string(id))
}

func (c *console) open(arg string) {
	id, ok := c.resolve(arg)
	if !ok || !c.navigate("/chat/"+string(id)) {
		return
	}
	window, err := c.engine.Chat.Open(id)
	if err != nil {
		c.fail(err)
		return
	}
	// Messages appended since Open copied the log are replayed under the lock,
	// so none falls between the copy and the window taking events.
	c.mu.Lock()
	c.current, c.window = id, window
	room, log, err := c.engine.Conversations.GetChatroom(id)
	if err == nil {
		window.Append(log...)
	}
	c.mu.Unlock()

	c.println(c.paint(color.FgCyan, fmt.Sprintf("# %s", room.Title)))
	if window.HasMore() {
		c.info("%d older messages, use /more", window.Hidden())
	}
	for _, m := range window.Visible() {
		c.message(m)
	}
}

func (c *console) more() {
	c.mu.Lock()
	window := c.window
	c.mu.Unlock()
	if window == nil {
		c.fail(fmt.Errorf("no chatroom open"))
		return
	}
	added, fired := window.LoadMore()
	if !fired {
		c.info("Nothing more to load (%s)", window.State())
		return
	}
	for _, m := range window.Visible()[:added] {
		c.message(m)
	}
	if window.State() == pagination.Exhausted {
		c.info("Beginning of the conversation")
	}
}

func (c *console) send(text string, image []byte) {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()
	if current == "" {
		c.fail(fmt.Errorf("open a chatroom first (/open or /new)"))
		return
	}
	if !c.navigate("/chat/" + string(current)) {
		return
	}
	if _, err := c.engine.Chat.SendMessage(current, text, image); err != nil {
		c.fail(err)
	}
}

func (c *console) image(arg string) {
	path, caption, _ := strings.Cut(arg, " ")
	data, err := os.ReadFile(path)
	if err != nil {
		c.fail(err)
		return
	}
	c.send(caption, data)
}

func (c *console) find(ctx context.Context, terms string) {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()
	hits, err := c.engine.Chat.SearchMessages(ctx, current, terms, 20)
	if err != nil {
		c.fail(err)
		return
	}
	table := c.table([]string{"Chatroom", "Sender", "When", "Message"})
	for _, hit := range hits {
		table.Append([]string{shortID(hit.ChatroomID), string(hit.Sender), domain.FormatTime(hit.At), hit.Content})
	}
	table.Render()
}

func (c *console) remove(arg string) {
	id, ok := c.resolve(arg)
	if !ok {
		return
	}
	if err := c.engine.Chat.DeleteChatroom(id); err != nil {
		c.fail(err)
		return
	}
	c.info("Chatroom %s deleted", shortID(id))
}

func (c *console) leave() {
	c.mu.Lock()
	c.current, c.window = "", nil
	c.mu.Unlock()
}

// resolve accepts a full chatroom id, the short id shown in listings, or a listing position.
func (c *console) resolve(arg string) (domain.ChatroomID, bool) {
	rooms := c.engine.Conversations.ListChatrooms()
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(rooms) && len(arg) < 4 {
		return rooms[n-1].ID, true
	}
	var found []domain.ChatroomID
	for _, room := range rooms {
		if room.ID == domain.ChatroomID(arg) {
			return room.ID, true
		}
		if arg != "" && strings.HasSuffix(string(room.ID), arg) {
			found = append(found, room.ID)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	if len(found) > 1 {
		c.fail(fmt.Errorf("%q matches %d chatrooms", arg, len(found)))
		return "", false
	}
	// Unknown ids go through so the store reports them.
	return domain.ChatroomID(arg), arg != ""
}

func (c *console) rooms(rooms []domain.Chatroom) {
	now := time.Now()
	table := c.table([]string{"#", "ID", "Title", "Messages", "Last message", "When"})
	for i, room := range rooms {
		when := domain.FormatDate(now, room.CreatedAt)
		if room.LastMessageTime != nil {
			when = domain.FormatDate(now, *room.LastMessageTime)
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			shortID(room.ID),
			room.Title,
			strconv.Itoa(room.MessageCount),
			room.LastMessage,
			when,
		})
	}
	table.Render()
}

func (c *console) message(m domain.Message) {
	who := c.paint(color.FgGreen, "you")
	if m.Sender == domain.SenderAssistant {
		who = c.paint(color.FgMagenta, "assistant")
	}
	content := m.Content
	if m.HasImage() {
		content = strings.TrimSpace(fmt.Sprintf("[image %d bytes] %s", len(m.Image), content))
	}
	c.println(fmt.Sprintf("%s %s: %s", c.paint(color.FgGray, domain.FormatTime(m.CreatedAt)), who, content))
}

func (c *console) table(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	return table
}

func (c *console) info(format string, args ...any) {
	c.println(c.paint(color.FgYellow, fmt.Sprintf(format, args...)))
}

func (c *console) fail(err error) {
	c.println(c.paint(color.FgRed, "! "+err.Error()))
}

func (c *console) paint(colour color.Color, text string) string {
	if !c.colours {
		return text
	}
	return colour.Render(text)
}

func (c *console) println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

func shortID(id domain.ChatroomID) string {
	s := string(id)
	if len(s) > 8 {
		return s[len(s)-8:]
	}
	return s
}
