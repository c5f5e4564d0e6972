package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"assistant/internal/catalog"
	"assistant/internal/model"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fixed replies shared by the chat pipeline and the HTTP layer
const (
	FallbackReply = "Xin lỗi, tôi không hiểu yêu cầu của bạn. 🤔\n\n" +
		"Bạn có thể thử:\n" +
		"• 'Tìm apartment 2 phòng ngủ ở Canada'\n" +
		"• 'Cần thuê house ở USA giá dưới 50k'\n" +
		"• Hoặc gõ 'help' để xem hướng dẫn"

	ApologyReply    = "Xin lỗi, đã có lỗi xảy ra. Vui lòng thử lại! 😔"
	BadRequestReply = "Yêu cầu không hợp lệ. Vui lòng gửi dữ liệu JSON."

	listeningReply   = "Tôi đang lắng nghe yêu cầu của bạn."
	askTypePrompt    = "\n\nBạn muốn tìm loại nhà nào? (Apartment, House, hay Villa?) 🏠"
	askCountryPrompt = "\n\nBạn muốn tìm ở quốc gia nào? (Canada, USA, Vietnam...) 🌍"
)

// RejectionReply formats the reply for a message refused by validation
func RejectionReply(reason string) string {
	return fmt.Sprintf("❌ %s. Vui lòng nhập lại tin nhắn hợp lệ.", reason)
}

// ReplySelector picks one of n reply templates for an intent
type ReplySelector interface {
	Select(intent string, n int) int
}

// Reply selection strategies
const (
	StrategyRandom     = "random"
	StrategyRoundRobin = "round_robin"
)

// NewReplySelector builds the selector named by strategy. A zero seed
// seeds the random selector from the clock.
func NewReplySelector(strategy string, seed int64) ReplySelector {
	if strategy == StrategyRoundRobin {
		return NewRoundRobinSelector()
	}
	return NewRandomSelector(seed)
}

// RandomSelector picks templates uniformly at random
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector creates a random selector; equal seeds give equal sequences
func NewRandomSelector(seed int64) *RandomSelector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSelector{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

// Select implements ReplySelector
func (r *RandomSelector) Select(_ string, n int) int {
	if n <= 1 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// RoundRobinSelector cycles through the templates of each intent in order
type RoundRobinSelector struct {
	mu   sync.Mutex
	next map[string]int
}

// NewRoundRobinSelector creates a round-robin selector
func NewRoundRobinSelector() *RoundRobinSelector {
	return &RoundRobinSelector{next: make(map[string]int)}
}

// Select implements ReplySelector
func (r *RoundRobinSelector) Select(intent string, n int) int {
	if n <= 1 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.next[intent] % n
	r.next[intent] = i + 1
	return i
}

// ResponseComposer turns an intent and the user's context into reply text
type ResponseComposer struct {
	catalog  *catalog.Catalog
	selector ReplySelector
	printer  *message.Printer
}

// NewResponseComposer creates a composer; a nil selector picks at random
func NewResponseComposer(cat *catalog.Catalog, selector ReplySelector) *ResponseComposer {
	if selector == nil {
		selector = NewRandomSelector(0)
	}
	return &ResponseComposer{
		catalog:  cat,
		selector: selector,
		printer:  message.NewPrinter(language.English),
	}
}

// Compose builds the reply for one turn. Intents with reply templates
// answer from the catalog; everything else gets a summary of what is
// known so far plus a prompt for the first missing search field.
// canSearch reports whether type and country are both known.
func (c *ResponseComposer) Compose(intent string, ctx model.ConversationContext, name string) (reply string, canSearch bool) {
	canSearch = ctx.CanSearch()

	greeting := ""
	if name != "" {
		greeting = name + " ơi, "
	}

	if intent != "" {
		if in, ok := c.catalog.Lookup(intent); ok && !in.Composed() {
			return greeting + in.Replies[c.selector.Select(in.Name, len(in.Replies))], canSearch
		}
	}

	var parts []string
	if ctx.Type != nil {
		parts = append(parts, "Bạn đang tìm "+string(*ctx.Type))
	}
	if ctx.Country != nil {
		parts = append(parts, "ở "+string(*ctx.Country))
	}
	if ctx.Bedrooms != nil {
		parts = append(parts, fmt.Sprintf("với %d phòng ngủ", *ctx.Bedrooms))
	}
	if ctx.MaxPrice != nil {
		parts = append(parts, c.printer.Sprintf("giá dưới $%d", *ctx.MaxPrice))
	}

	var b strings.Builder
	b.WriteString(greeting)
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, ". "))
		b.WriteString(".")
	} else {
		b.WriteString(listeningReply)
	}

	switch {
	case ctx.Type == nil:
		b.WriteString(askTypePrompt)
	case ctx.Country == nil:
		b.WriteString(askCountryPrompt)
	}
	return b.String(), canSearch
}
