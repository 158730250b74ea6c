package entities

type DigestSession struct {
	Day     string
	Start   string
	End     string
	Project string
}

type DigestEmailData struct {
	UserName     string
	SessionCount int
	Sessions     []DigestSession
	Unassigned   int
	CurrentYear  int
}
