package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/kakshahq/kaksha-api/internal/models"
)

// ClassroomRepository defines persistence operations for the classroom
// aggregate. Saves always write the whole row, embedded collections included.
type ClassroomRepository interface {
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Classroom, error)
	GetByName(ctx context.Context, name string) (models.Classroom, error)
	GetByInviteCode(ctx context.Context, code string) (models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Save(ctx context.Context, classroom *models.Classroom) error
	Delete(ctx context.Context, id uint) error
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository instantiates a GORM-backed repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).First(&classroom, id).Error; err != nil {
		return models.Classroom{}, err
	}

	return classroom, nil
}

func (r *classroomRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Classroom, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var classrooms []models.Classroom
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&classrooms).Error; err != nil {
		return nil, err
	}

	return classrooms, nil
}

func (r *classroomRepository) GetByName(ctx context.Context, name string) (models.Classroom, error) {
	var classroom models.Classroom
	trimmed := strings.TrimSpace(name)
	if err := r.db.WithContext(ctx).Where("name = ?", trimmed).First(&classroom).Error; err != nil {
		return models.Classroom{}, err
	}

	return classroom, nil
}

func (r *classroomRepository) GetByInviteCode(ctx context.Context, code string) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&classroom).Error; err != nil {
		return models.Classroom{}, err
	}

	return classroom, nil
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepository) Save(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Save(classroom).Error
}

func (r *classroomRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Classroom{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
