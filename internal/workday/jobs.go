package workday

import (
	"strings"

	"github.com/Tiliavir/ghosttrack/internal/model"
)

// FindJob returns the index of the job whose canonical name equals name,
// or -1.
func (d *Day) FindJob(name string) int {
	want := model.CanonicalJobName(name)
	for i, j := range d.Jobs {
		if model.CanonicalJobName(j.Name) == want {
			return i
		}
	}
	return -1
}

// AddJob creates a job named name at the front of the list.
func (d *Day) AddJob(name string, now int64) error {
	if !d.Active() {
		return ErrNoActiveDay
	}
	name = model.CanonicalJobName(name)
	if name == "" {
		return invalid("name", "job name must not be blank")
	}
	if name == model.IdleJob {
		return invalid("name", "%q is reserved", name)
	}
	if d.FindJob(name) >= 0 {
		return invalid("name", "job %q already exists", name)
	}

	job := model.NormalizeJob(model.Job{Name: name, Sessions: []model.Session{}})
	d.Jobs = append([]model.Job{job}, d.Jobs...)
	d.Reconcile(now)
	return nil
}

// DeleteJob removes job i. An open span on it is dropped.
func (d *Day) DeleteJob(i int, now int64) error {
	if err := d.checkJob(i); err != nil {
		return err
	}
	d.Jobs = append(d.Jobs[:i], d.Jobs[i+1:]...)
	d.Reconcile(now)
	return nil
}

// DeleteSession removes session s of job i.
func (d *Day) DeleteSession(i, s int, now int64) error {
	if err := d.checkJob(i); err != nil {
		return err
	}
	j := &d.Jobs[i]
	if s < 0 || s >= len(j.Sessions) {
		return invalid("session", "job %q has %d session(s)", j.Name, len(j.Sessions))
	}
	j.Sessions = append(j.Sessions[:s], j.Sessions[s+1:]...)
	j.RefreshTotal()
	d.Reconcile(now)
	return nil
}

// AddTask records a task for job i under dateKey.
func (d *Day) AddTask(i int, dateKey, task string) error {
	if err := d.checkJob(i); err != nil {
		return err
	}
	task = strings.TrimSpace(task)
	if task == "" {
		return invalid("task", "task must not be blank")
	}
	j := &d.Jobs[i]
	if j.TasksByDate == nil {
		j.TasksByDate = map[string][]string{}
	}
	j.TasksByDate[dateKey] = append(j.TasksByDate[dateKey], task)
	return nil
}

// Lookup is FindJob that reports a missing job as a validation error.
func (d *Day) Lookup(name string) (int, error) {
	i := d.FindJob(name)
	if i < 0 {
		return -1, invalid("job", "no job named %q", model.CanonicalJobName(name))
	}
	return i, nil
}
