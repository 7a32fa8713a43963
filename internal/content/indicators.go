package content

// DefaultIndicators are phrase literals that mark a proposed response as
// carrying smuggled instructions. Matched case-insensitively as substrings;
// the first hit is reported verbatim in the rejection reason.
var DefaultIndicators = []string{
	"forward this email",
	"click this link",
	"download this attachment",
	"reply with your password",
	"provide your credentials",
	"execute this code",
	"run this command",
	"ignore security warnings",
}
