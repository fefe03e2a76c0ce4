package realtime

import "math"

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Sqrt((x2-x1)*(x2-x1) + (y2-y1)*(y2-y1))
}

// InRange returns every other in-world session within radiusPx of the
// origin connection. The boundary is inclusive. An unbound or unknown
// origin yields nothing.
//
// The scan is linear over all live sessions, which is fine for the
// expected scale of tens to low hundreds of players. Callers only see
// the returned slice, so the scan could later be swapped for a grid
// without touching them.
func (r *Registry) InRange(originConnID string, radiusPx float64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	origin, ok := r.byConn[originConnID]
	if !ok || !origin.InWorld() {
		return nil
	}

	var sessions []*Session
	for connID, session := range r.byConn {
		if connID == originConnID || !session.InWorld() {
			continue
		}
		if distance(origin.x, origin.y, session.x, session.y) <= radiusPx {
			sessions = append(sessions, session)
		}
	}
	return sessions
}
