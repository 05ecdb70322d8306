package bus

import "fmt"

// Well-known topic prefixes Portfolio subscribes to (spec.md §4.8) and
// other components publish on.
const (
	TopicOrderEvents    = "events.order"
	TopicPositionEvents = "events.position"
	TopicAccountEvents  = "events.account"
	TopicQuotes         = "data.quotes"
	TopicTrades         = "data.trades"
	TopicBars           = "data.bars"
	TopicBookDeltas     = "data.book.deltas"
)

// OrderEventTopic builds "events.order.<instrument>" style concrete
// topics; TopicOrderEvents+".*" is the pattern Portfolio subscribes with.
func OrderEventTopic(instrument string) string {
	return fmt.Sprintf("%s.%s", TopicOrderEvents, instrument)
}

func PositionEventTopic(instrument string) string {
	return fmt.Sprintf("%s.%s", TopicPositionEvents, instrument)
}

func AccountEventTopic(account string) string {
	return fmt.Sprintf("%s.%s", TopicAccountEvents, account)
}

func QuoteTopic(instrument string) string {
	return fmt.Sprintf("%s.%s", TopicQuotes, instrument)
}

func TradeTopic(instrument string) string {
	return fmt.Sprintf("%s.%s", TopicTrades, instrument)
}

func BarTopic(barType string) string {
	return fmt.Sprintf("%s.%s", TopicBars, barType)
}
