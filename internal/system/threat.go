package system

import "github.com/arenago/server/internal/world"

// AddThreat 累加威脅值並維護 AggroTarget 快取。
// 若新威脅累計超過當前目標，自動切換 AggroTarget。
// 模擬迴圈單線程呼叫，無需鎖。
func AddThreat(a *world.Actor, attacker world.ActorID, damage int32) {
	if damage <= 0 || attacker.IsZero() {
		return
	}
	if a.ThreatList == nil {
		a.ThreatList = make(map[world.ActorID]int32)
	}
	a.ThreatList[attacker] += damage

	// 首次受擊或威脅超過當前目標 → 切換
	if a.AggroTarget.IsZero() {
		a.AggroTarget = attacker
		return
	}
	if attacker != a.AggroTarget {
		if a.ThreatList[attacker] > a.ThreatList[a.AggroTarget] {
			a.AggroTarget = attacker
		}
	}
}

// MaxThreatTarget 回傳威脅值最高的 ActorID。
// 用於當前目標失效時重新選擇。回傳零值表示威脅列表為空。
func MaxThreatTarget(a *world.Actor) world.ActorID {
	if len(a.ThreatList) == 0 {
		return 0
	}
	var maxID world.ActorID
	var maxThreat int32 = -1
	for id, threat := range a.ThreatList {
		if threat > maxThreat || (threat == maxThreat && id < maxID) {
			maxThreat = threat
			maxID = id
		}
	}
	return maxID
}

// RemoveThreatTarget 從威脅列表移除指定目標（死亡／離開世界）。
func RemoveThreatTarget(a *world.Actor, id world.ActorID) {
	if a.ThreatList != nil {
		delete(a.ThreatList, id)
	}
	if a.AggroTarget == id {
		a.AggroTarget = 0
	}
}

// ClearThreat 清空威脅列表（角色死亡或重生時呼叫）。
func ClearThreat(a *world.Actor) {
	a.ThreatList = nil
	a.AggroTarget = 0
}

// TotalThreat 回傳所有威脅的累計總值（統計用）。
func TotalThreat(a *world.Actor) int32 {
	var total int32
	for _, t := range a.ThreatList {
		total += t
	}
	return total
}
