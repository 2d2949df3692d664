package user

// Capability is one explicit permission carried by a principal. Engine
// operations check capabilities directly instead of relying on ambient
// admin flags.
type Capability string

const (
	// CapChallengeManage covers creating challenges, operator status
	// transitions, and admission decisions.
	CapChallengeManage Capability = "challenge:manage"
	// CapClubManage covers responding to club invitations and team rosters.
	CapClubManage Capability = "club:manage"
	// CapProgressIngest covers appending progress snapshots and running
	// replay audits.
	CapProgressIngest Capability = "progress:ingest"
)

// Principal is the authenticated caller as reported by the account
// service's token introspection.
type Principal struct {
	UserID       string
	Email        string
	ClubID       string
	Capabilities []Capability
}

func (p Principal) Can(cap Capability) bool {
	for _, c := range p.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}
