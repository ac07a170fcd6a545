package phantom

import "heartslicer/internal/models"

// Ramp returns a synthetic volume whose voxel values equal their flat index,
// so the minimum is 0 and the maximum is the voxel count minus one
func Ramp(size [3]int) *models.Volume {
	vol := models.NewVolume(size)
	for i := range vol.Data {
		vol.Data[i] = float64(i)
	}
	return vol
}
