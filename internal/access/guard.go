// Package access decides which views each role may reach. The policy is a
// closed table; evaluation is synchronous and side-effect-free, and callers
// perform any redirect themselves.
package access

import "trustnet/internal/domain"

// View is a navigable surface of the portal.
type View string

const (
	ViewLanding            View = "landing"
	ViewRegister           View = "register"
	ViewContact            View = "contact"
	ViewPrivacy            View = "privacy"
	ViewSubmitterHome      View = "submitter_home"
	ViewDocumentUpload     View = "document_upload"
	ViewVerificationResult View = "verification_result"
	ViewIssuedDocuments    View = "issued_documents"
	ViewProfile            View = "profile"
	ViewVerifierHome       View = "verifier_home"
	ViewDocumentReview     View = "document_review"
	ViewIssuerHome         View = "issuer_home"
	ViewFraudMonitoring    View = "fraud_monitoring"
)

// Class groups views by the role allowed to reach them.
type Class int

const (
	ClassPublic Class = iota
	ClassSubmitter
	ClassVerifier
	ClassIssuer
)

// viewClasses is the closed mapping of views to their class. Unknown views
// never authorize.
var viewClasses = map[View]Class{
	ViewLanding:            ClassPublic,
	ViewRegister:           ClassPublic,
	ViewContact:            ClassPublic,
	ViewPrivacy:            ClassPublic,
	ViewSubmitterHome:      ClassSubmitter,
	ViewDocumentUpload:     ClassSubmitter,
	ViewVerificationResult: ClassSubmitter,
	ViewIssuedDocuments:    ClassSubmitter,
	ViewProfile:            ClassSubmitter,
	ViewVerifierHome:       ClassVerifier,
	ViewDocumentReview:     ClassVerifier,
	ViewIssuerHome:         ClassIssuer,
	ViewFraudMonitoring:    ClassIssuer,
}

// homeViews maps each role to the view it is redirected to when it requests a
// surface outside its class. Each role is strictly scoped; the issuer is not a
// superset of verifier or submitter.
var homeViews = map[domain.Role]View{
	domain.RoleSubmitter: ViewSubmitterHome,
	domain.RoleVerifier:  ViewVerifierHome,
	domain.RoleIssuer:    ViewIssuerHome,
}

var roleClasses = map[domain.Role]Class{
	domain.RoleSubmitter: ClassSubmitter,
	domain.RoleVerifier:  ClassVerifier,
	domain.RoleIssuer:    ClassIssuer,
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed    bool
	RedirectTo View
}

// Allow is the decision for an authorized request.
var Allow = Decision{Allowed: true}

// RedirectTo denies the request and names the view the caller should land on.
func RedirectTo(view View) Decision {
	return Decision{RedirectTo: view}
}

// Guard evaluates the role/view policy table.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// Authorize is a pure function of (identity, view). A nil identity means no
// active session.
func (g *Guard) Authorize(identity *domain.Identity, view View) Decision {
	class, known := viewClasses[view]
	if !known {
		if identity == nil {
			return RedirectTo(ViewLanding)
		}
		return RedirectTo(homeViews[identity.Role])
	}

	if class == ClassPublic {
		return Allow
	}
	if identity == nil {
		return RedirectTo(ViewLanding)
	}
	if roleClasses[identity.Role] == class {
		return Allow
	}
	return RedirectTo(homeViews[identity.Role])
}

// ClassOf exposes the class of a view for transport-level route gating.
func ClassOf(view View) (Class, bool) {
	class, ok := viewClasses[view]
	return class, ok
}
