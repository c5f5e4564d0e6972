package model

// Intent is a catalog entry: example phrases used for matching and
// canned replies. An intent without replies asks for a composed answer.
type Intent struct {
	Name    string   `yaml:"name" json:"name"`
	Phrases []string `yaml:"phrases" json:"phrases"`
	Replies []string `yaml:"replies" json:"replies,omitempty"`
}

// Composed reports whether replies for this intent are built from context
func (i Intent) Composed() bool {
	return len(i.Replies) == 0
}

// Classification is the classifier's verdict for one message.
// Intent is empty when nothing scored above the threshold.
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Matched reports whether an intent was selected
func (c Classification) Matched() bool {
	return c.Intent != ""
}

// IntentVector is the embedding of one example phrase
type IntentVector struct {
	Intent      string    `db:"intent"`
	PhraseIndex int       `db:"phrase_index"`
	Phrase      string    `db:"phrase"`
	Embedding   []float32 `db:"-"`
}
