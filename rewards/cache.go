package rewards

import (
	"time"

	"github.com/arenalabs/tradearena/pkg/kernel"
)

// Identificadores de las operaciones cacheadas del módulo
const (
	ProcListRewards    = "rewards.list"
	ProcTotalClaimable = "rewards.totalClaimable"
)

const RewardsTTL = 60 * time.Second

// UserRewardsTag tag de invalidación de los premios de un usuario
func UserRewardsTag(userID kernel.UserID) string {
	return "rewards:" + userID.String()
}
