package kernel

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

type AdminID string

func NewAdminID(id string) AdminID { return AdminID(id) }
func (a AdminID) String() string   { return string(a) }
func (a AdminID) IsEmpty() bool    { return string(a) == "" }

type AgentID string

func NewAgentID(id string) AgentID { return AgentID(id) }
func (a AgentID) String() string   { return string(a) }
func (a AgentID) IsEmpty() bool    { return string(a) == "" }

type CompetitionID string

func NewCompetitionID(id string) CompetitionID { return CompetitionID(id) }
func (c CompetitionID) String() string         { return string(c) }
func (c CompetitionID) IsEmpty() bool          { return string(c) == "" }

type RewardID string

func NewRewardID(id string) RewardID { return RewardID(id) }
func (r RewardID) String() string    { return string(r) }
func (r RewardID) IsEmpty() bool     { return string(r) == "" }

type WalletAddress string

func NewWalletAddress(addr string) WalletAddress { return WalletAddress(addr) }
func (w WalletAddress) String() string           { return string(w) }
func (w WalletAddress) IsEmpty() bool            { return string(w) == "" }
