// Package staging manages the per-job scratch directories under
// paths.work_dir: reporting their disk usage and sweeping the ones no job
// record refers to anymore.
package staging
