package model

// CertificateKind is a certificate an intern can hold. Each kind is rendered
// from the active template of one TemplateType.
type CertificateKind string

const (
	JoiningKind    CertificateKind = "joining"
	CompletionKind CertificateKind = "completion"
)

func (k CertificateKind) TemplateType() TemplateType {
	if k == CompletionKind {
		return CompletionCertificate
	}
	return JoiningLetter
}

// PathSegment is the URL segment used by verification links and the public
// lookup routes, e.g. "joiningcertificate".
func (k CertificateKind) PathSegment() string {
	return string(k) + "certificate"
}

// EmailKey is the key of the email template announcing this certificate.
func (k CertificateKind) EmailKey() string {
	return string(k) + "_certificate_issued"
}

// KindFromSegment is the inverse of PathSegment.
func KindFromSegment(segment string) (CertificateKind, bool) {
	switch segment {
	case JoiningKind.PathSegment():
		return JoiningKind, true
	case CompletionKind.PathSegment():
		return CompletionKind, true
	}
	return "", false
}

// CertificatePath returns the stored relative path for kind, if any.
func (i *Intern) CertificatePath(kind CertificateKind) string {
	if kind == CompletionKind {
		return i.CompletionCertificatePath
	}
	return i.JoiningCertificatePath
}
