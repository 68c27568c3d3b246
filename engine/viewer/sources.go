package viewer

import "path/filepath"

// Sources names the two asset files a viewer renders from. Idle supplies the skeleton
// and the idle clip; Attack supplies the attack clip. They may be the same file.
type Sources struct {
	Idle   string
	Attack string
}

// PairFromTask returns the sources produced by one generation task, stored as
// <dir>/<taskID>_idle.glb and <dir>/<taskID>_attack.glb.
//
// Parameters:
//   - dir: the directory holding the task's assets
//   - taskID: the task identifier
//
// Returns:
//   - Sources: the idle/attack pair
func PairFromTask(dir, taskID string) Sources {
	return Sources{
		Idle:   filepath.ToSlash(filepath.Join(dir, taskID+"_idle.glb")),
		Attack: filepath.ToSlash(filepath.Join(dir, taskID+"_attack.glb")),
	}
}

func (s Sources) keys() []string {
	return []string{s.Idle, s.Attack}
}
