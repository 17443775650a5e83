package service

import (
	"strings"

	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Classifiers – keyword-based intent and emotion detection
// ---------------------------------------------------------------------------
//
// Classification is an advisory signal for the stage router, never a hard
// input to business math. Scoring counts keyword hits per label; confidence
// is the winning label's share of all hits. Label order is fixed so ties
// resolve deterministically.

type labelKeywords struct {
	label    string
	keywords []string
}

var intentKeywords = []labelKeywords{
	{string(valueobject.IntentAskLoan), []string{"loan", "borrow", "amount", "credit", "interest", "emi"}},
	{string(valueobject.IntentVerifyKYC), []string{"verify", "otp", "identity", "confirm", "phone"}},
	{string(valueobject.IntentUploadDocs), []string{"upload", "document", "salary", "slip", "file"}},
	{string(valueobject.IntentAskRate), []string{"rate", "interest", "percentage", "% p.a.", "charges"}},
	{string(valueobject.IntentAskEMI), []string{"emi", "monthly", "installment", "payment"}},
	{string(valueobject.IntentAskTimeline), []string{"how long", "timeline", "days", "when", "approval"}},
	{string(valueobject.IntentEscalate), []string{"human", "speak", "agent", "representative"}},
	{string(valueobject.IntentAbandon), []string{"no thanks", "later", "goodbye", "exit", "quit"}},
}

var emotionKeywords = []labelKeywords{
	{string(valueobject.EmotionAnxiety), []string{"worried", "anxious", "nervous", "unsure", "hesitant", "confused"}},
	{string(valueobject.EmotionJoy), []string{"happy", "excited", "great", "awesome", "excellent"}},
	{string(valueobject.EmotionAnger), []string{"angry", "frustrated", "upset", "annoyed"}},
	{string(valueobject.EmotionSadness), []string{"sad", "disappointed", "down", "upset"}},
	{string(valueobject.EmotionConfusion), []string{"confused", "unclear", "explain", "understand"}},
}

// ClassifyIntent matches the text against the intent keyword table and
// returns the winning intent with its confidence. No match yields an empty
// intent with zero confidence.
func ClassifyIntent(text string) (valueobject.Intent, float64) {
	label, confidence := scoreKeywords(text, intentKeywords)
	if label == "" {
		return "", 0.0
	}
	return valueobject.Intent(label), confidence
}

// DetectEmotion matches the text against the emotion keyword table. No match
// (including empty text) yields neutral with full confidence.
func DetectEmotion(text string) (valueobject.Emotion, float64) {
	label, confidence := scoreKeywords(text, emotionKeywords)
	if label == "" {
		return valueobject.EmotionNeutral, 1.0
	}
	return valueobject.Emotion(label), confidence
}

func scoreKeywords(text string, table []labelKeywords) (string, float64) {
	lower := strings.ToLower(text)

	var (
		best      string
		bestScore int
		total     int
	)
	for _, entry := range table {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		total += score
		if score > bestScore {
			best = entry.label
			bestScore = score
		}
	}

	if bestScore == 0 {
		return "", 0.0
	}
	confidence := float64(bestScore) / float64(total)
	if confidence > 1.0 {
		confidence = 1.0
	}
	return best, confidence
}
