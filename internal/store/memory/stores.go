package memory

// Stores groups the in-memory stores wired together so deletes cascade like the database schema.
type Stores struct {
	Accounts      *AccountStore
	Sessions      *SessionStore
	Organizations *OrganizationStore
	Memberships   *MembershipStore
	CloudAccounts *CloudAccountStore
}

// NewStores creates a full set of in-memory stores.
func NewStores() *Stores {
	sessions := NewSessionStore()
	memberships := NewMembershipStore()
	cloudAccounts := NewCloudAccountStore()

	return &Stores{
		Accounts:      NewAccountStore(sessions, memberships),
		Sessions:      sessions,
		Organizations: NewOrganizationStore(memberships, cloudAccounts),
		Memberships:   memberships,
		CloudAccounts: cloudAccounts,
	}
}
