package valueobject

// ---------------------------------------------------------------------------
// Advisory classification labels
// ---------------------------------------------------------------------------

// Intent is an advisory label derived from free-text user input. The state
// machine may consult it inside a stage's own sub-logic, but explicit system
// events always take precedence.
type Intent string

const (
	IntentAskLoan     Intent = "ask_loan"
	IntentVerifyKYC   Intent = "verify_kyc"
	IntentUploadDocs  Intent = "upload_docs"
	IntentAskRate     Intent = "ask_rate"
	IntentAskEMI      Intent = "ask_emi"
	IntentAskTimeline Intent = "ask_timeline"
	IntentEscalate    Intent = "escalate"
	IntentAbandon     Intent = "abandon"
)

// Emotion is a coarse emotional label used as a transition trigger, never
// for business math.
type Emotion string

const (
	EmotionJoy       Emotion = "joy"
	EmotionNeutral   Emotion = "neutral"
	EmotionAnxiety   Emotion = "anxiety"
	EmotionAnger     Emotion = "anger"
	EmotionSadness   Emotion = "sadness"
	EmotionConfusion Emotion = "confusion"
)
