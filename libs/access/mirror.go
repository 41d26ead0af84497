package access

import "sort"

// Visibility множество клиентов, данные которых может видеть пользователь.
// All означает отсутствие ограничений; пустое множество без All означает, что не видно ничего.
type Visibility struct {
	All      bool
	OwnerIDs map[string]struct{}
}

func (v Visibility) Allows(ownerID string) bool {
	if v.All {
		return true
	}
	_, ok := v.OwnerIDs[ownerID]
	return ok
}

// IDs отсортированный список клиентов; nil при All.
func (v Visibility) IDs() []string {
	if v.All {
		return nil
	}
	ids := make([]string, 0, len(v.OwnerIDs))
	for id := range v.OwnerIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveAllowedOwnerIDs вычисляет видимых клиентов по настройкам mirrorAccess и userAccess.
// Признак "все клиенты" из любого источника перекрывает явные списки.
func ResolveAllowedOwnerIDs(user *User) Visibility {
	if user == nil {
		return Visibility{OwnerIDs: map[string]struct{}{}}
	}
	if user.IsAdmin() {
		return Visibility{All: true}
	}

	allowAll := false
	ids := make(map[string]struct{})
	add := func(list []string) {
		for _, id := range list {
			ids[id] = struct{}{}
		}
	}

	if m := user.Attributes.MirrorAccess; m != nil {
		allowAll = allowAll || m.AllowAll
		add(m.OwnerIDs)
	}

	if ua := user.Attributes.UserAccess; ua != nil {
		add(ua.OwnerIDs)
		if m := ua.MirrorAccess; m != nil {
			allowAll = allowAll || m.AllowAll
			add(m.OwnerIDs)
		}
	}

	if allowAll {
		return Visibility{All: true}
	}
	return Visibility{OwnerIDs: ids}
}
