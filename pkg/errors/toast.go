package errors

// Category is the operator-facing notification bucket for a failure.
type Category string

// Notification categories. Each maps to one transient toast in the UI.
const (
	CategoryPreview    Category = "preview"    // decode or canvas failure, prior preview kept
	CategoryClipboard  Category = "clipboard"  // clipboard skipped, dispatch continues
	CategoryValidation Category = "validation" // operator must fix input before retrying
	CategoryAI         Category = "ai"         // generation failed, nothing changed
	CategoryDispatch   Category = "dispatch"   // sequencer rejected or failed a step
	CategoryStorage    Category = "storage"    // archive or registry unavailable
	CategoryInternal   Category = "internal"
)

// Toast describes the notification shown for err.
type Toast struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Code     Code     `json:"code,omitempty"`
}

// ToastFor maps err to its notification. Errors without a code are internal.
func ToastFor(err error) Toast {
	code := GetCode(err)
	t := Toast{Message: UserMessage(err), Code: code}
	switch code {
	case ErrCodeDecode, ErrCodeCanvas:
		t.Category = CategoryPreview
	case ErrCodeClipboard:
		t.Category = CategoryClipboard
	case ErrCodeInvalidInput, ErrCodeInvalidSettings, ErrCodeInvalidChannel,
		ErrCodeInvalidPath, ErrCodeMissingContact:
		t.Category = CategoryValidation
	case ErrCodeAIService, ErrCodeRateLimited:
		t.Category = CategoryAI
	case ErrCodeNotDispatching, ErrCodeInvalidState, ErrCodeNavigate:
		t.Category = CategoryDispatch
	case ErrCodeStorage, ErrCodeNotFound, ErrCodeConflict:
		t.Category = CategoryStorage
	default:
		t.Category = CategoryInternal
	}
	return t
}
