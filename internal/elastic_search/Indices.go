package elastic_search

import (
	"fmt"
)

type Indices string

var (
	RecordIndex Indices = "record"
	PayoutIndex Indices = "payout"
)

// Get prefixes the index with the configured namespace.
func (i Indices) Get(prefix string) string {
	return fmt.Sprintf("%s.%s", prefix, string(i))
}

var mappings = map[Indices]string{
	RecordIndex: `{
  "mappings": {
    "properties": {
      "seq":      {"type": "long"},
      "callId":   {"type": "keyword"},
      "kind":     {"type": "keyword"},
      "time":     {"type": "date"},
      "contract": {"type": "keyword"},
      "tokenId":  {"type": "long"},
      "from":     {"type": "keyword"},
      "to":       {"type": "keyword"},
      "uri":      {"type": "keyword"},
      "amount":   {"type": "keyword"},
      "fee":      {"type": "keyword"},
      "royalty":  {"type": "keyword"},
      "proceeds": {"type": "keyword"}
    }
  }
}`,
	PayoutIndex: `{
  "mappings": {
    "properties": {
      "seq":    {"type": "long"},
      "callId": {"type": "keyword"},
      "to":     {"type": "keyword"},
      "amount": {"type": "keyword"},
      "time":   {"type": "date"}
    }
  }
}`,
}
