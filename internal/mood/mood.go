// Package mood holds the fixed five-point mood scale shared by the
// submission workflow, the trend report, and the entry list.
package mood

// Option is one selectable mood: a score from 1 (very sad) to 5 (very happy),
// the emoji shown for it, the human label, and the chart color.
type Option struct {
	Score int    `json:"score"`
	Emoji string `json:"emoji"`
	Label string `json:"label"`
	Color string `json:"color"`
}

const (
	MinScore = 1
	MaxScore = 5

	// Defaults returned for any score outside 1..5.
	DefaultEmoji = "⚪"
	DefaultLabel = "Neutral"
	DefaultColor = "#E5E7EB"
)

// options is ordered sad → happy.
var options = [5]Option{
	{Score: 1, Emoji: "😢", Label: "Very Sad", Color: "#EF4444"},
	{Score: 2, Emoji: "😔", Label: "Sad", Color: "#F97316"},
	{Score: 3, Emoji: "😐", Label: "Neutral", Color: "#EAB308"},
	{Score: 4, Emoji: "😊", Label: "Happy", Color: "#22C55E"},
	{Score: 5, Emoji: "😄", Label: "Very Happy", Color: "#10B981"},
}

// Options returns the five mood options in fixed sad→happy order.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options[:])
	return out
}

// ValidScore reports whether score is on the 1..5 scale.
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// EmojiFor returns the emoji for a score, or DefaultEmoji for any other input.
func EmojiFor(score int) string {
	if !ValidScore(score) {
		return DefaultEmoji
	}
	return options[score-1].Emoji
}

// LabelFor returns the label for a score, or DefaultLabel for any other input.
func LabelFor(score int) string {
	if !ValidScore(score) {
		return DefaultLabel
	}
	return options[score-1].Label
}

// ColorFor returns the chart color for a score, or DefaultColor for any other input.
func ColorFor(score int) string {
	if !ValidScore(score) {
		return DefaultColor
	}
	return options[score-1].Color
}
