package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/minhvu/edupay/edupay-backend/internal/domain"
)

// MockTxManager runs the transactional function directly with a nil handle.
// Repositories' Tx variants in this package ignore the handle, so service
// tests exercise the same code paths as production without a database.
type MockTxManager struct {
	WithinTxFn func(ctx context.Context, fn func(tx any) error) error
	Calls      int
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithinTx runs fn with a nil transaction handle
func (m *MockTxManager) WithinTx(ctx context.Context, fn func(tx any) error) error {
	m.Calls++
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return fn(nil)
}

// MockClassRepository is a mock implementation of domain.ClassRepository
type MockClassRepository struct {
	Classes   map[uuid.UUID]*domain.Class
	GetByIDFn func(id uuid.UUID) (*domain.Class, error)
}

// NewMockClassRepository creates a new MockClassRepository
func NewMockClassRepository() *MockClassRepository {
	return &MockClassRepository{
		Classes: make(map[uuid.UUID]*domain.Class),
	}
}

// GetByID retrieves a class by ID
func (m *MockClassRepository) GetByID(id uuid.UUID) (*domain.Class, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	if class, ok := m.Classes[id]; ok {
		return class, nil
	}
	return nil, domain.ErrClassNotFound
}

// AddClass adds a class to the mock repository (helper for tests)
func (m *MockClassRepository) AddClass(class *domain.Class) {
	m.Classes[class.ID] = class
}

// MockStudentRepository is a mock implementation of domain.StudentRepository
type MockStudentRepository struct {
	Students  map[uuid.UUID]*domain.Student
	GetByIDFn func(id uuid.UUID) (*domain.Student, error)
}

// NewMockStudentRepository creates a new MockStudentRepository
func NewMockStudentRepository() *MockStudentRepository {
	return &MockStudentRepository{
		Students: make(map[uuid.UUID]*domain.Student),
	}
}

// GetByID retrieves a student by ID
func (m *MockStudentRepository) GetByID(id uuid.UUID) (*domain.Student, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	if student, ok := m.Students[id]; ok {
		return student, nil
	}
	return nil, domain.ErrStudentNotFound
}

// AddStudent adds a student to the mock repository (helper for tests)
func (m *MockStudentRepository) AddStudent(student *domain.Student) {
	m.Students[student.ID] = student
}

// MockTeacherRepository is a mock implementation of domain.TeacherRepository
type MockTeacherRepository struct {
	Teachers  map[uuid.UUID]*domain.Teacher
	GetByIDFn func(id uuid.UUID) (*domain.Teacher, error)
}

// NewMockTeacherRepository creates a new MockTeacherRepository
func NewMockTeacherRepository() *MockTeacherRepository {
	return &MockTeacherRepository{
		Teachers: make(map[uuid.UUID]*domain.Teacher),
	}
}

// GetByID retrieves a teacher by ID
func (m *MockTeacherRepository) GetByID(id uuid.UUID) (*domain.Teacher, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	if teacher, ok := m.Teachers[id]; ok {
		return teacher, nil
	}
	return nil, domain.ErrTeacherNotFound
}

// AddTeacher adds a teacher to the mock repository (helper for tests)
func (m *MockTeacherRepository) AddTeacher(teacher *domain.Teacher) {
	m.Teachers[teacher.ID] = teacher
}

type classDateKey struct {
	ClassID uuid.UUID
	Date    string
}

// MockAttendanceRepository is a mock implementation of domain.AttendanceRepository
type MockAttendanceRepository struct {
	Records  map[uuid.UUID]*domain.AttendanceRecord
	ByDay    map[classDateKey]*domain.AttendanceRecord
	CreateFn           func(record *domain.AttendanceRecord) (*domain.AttendanceRecord, error)
	UpdateFn           func(record *domain.AttendanceRecord) (*domain.AttendanceRecord, error)
	SearchFn           func(filters *domain.AttendanceFilters) (*domain.PaginatedAttendance, error)
	GetByIDForUpdateFn func(id uuid.UUID) (*domain.AttendanceRecord, error)
}

// NewMockAttendanceRepository creates a new MockAttendanceRepository
func NewMockAttendanceRepository() *MockAttendanceRepository {
	return &MockAttendanceRepository{
		Records: make(map[uuid.UUID]*domain.AttendanceRecord),
		ByDay:   make(map[classDateKey]*domain.AttendanceRecord),
	}
}

func dayKey(classID uuid.UUID, date time.Time) classDateKey {
	return classDateKey{ClassID: classID, Date: date.Format("2006-01-02")}
}

// Create creates a new attendance record
func (m *MockAttendanceRepository) Create(record *domain.AttendanceRecord) (*domain.AttendanceRecord, error) {
	if m.CreateFn != nil {
		return m.CreateFn(record)
	}
	key := dayKey(record.ClassID, record.Date)
	if _, ok := m.ByDay[key]; ok {
		return nil, domain.ErrAttendanceAlreadyExists
	}
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	m.Records[record.ID] = record
	m.ByDay[key] = record
	return record, nil
}

// GetByID retrieves an attendance record by ID
func (m *MockAttendanceRepository) GetByID(id uuid.UUID) (*domain.AttendanceRecord, error) {
	if record, ok := m.Records[id]; ok {
		return record, nil
	}
	return nil, domain.ErrAttendanceNotFound
}

// GetByIDForUpdateTx retrieves a record with a row lock; the mock ignores tx
func (m *MockAttendanceRepository) GetByIDForUpdateTx(tx any, id uuid.UUID) (*domain.AttendanceRecord, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(id)
	}
	return m.GetByID(id)
}

// GetByClassAndDate retrieves the record for a class on a calendar day
func (m *MockAttendanceRepository) GetByClassAndDate(classID uuid.UUID, date time.Time) (*domain.AttendanceRecord, error) {
	if record, ok := m.ByDay[dayKey(classID, date)]; ok {
		return record, nil
	}
	return nil, domain.ErrAttendanceNotFound
}

// GetByClassAndDateRange retrieves all records for a class within [start, end]
func (m *MockAttendanceRepository) GetByClassAndDateRange(classID uuid.UUID, start, end time.Time) ([]*domain.AttendanceRecord, error) {
	var records []*domain.AttendanceRecord
	for _, record := range m.Records {
		if record.ClassID != classID {
			continue
		}
		if record.Date.Before(start) || record.Date.After(end) {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

// GetByClassAndDateRangeTx is the transactional variant; the mock ignores tx
func (m *MockAttendanceRepository) GetByClassAndDateRangeTx(tx any, classID uuid.UUID, start, end time.Time) ([]*domain.AttendanceRecord, error) {
	return m.GetByClassAndDateRange(classID, start, end)
}

// UpdateTx updates an attendance record; the mock ignores tx
func (m *MockAttendanceRepository) UpdateTx(tx any, record *domain.AttendanceRecord) (*domain.AttendanceRecord, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(record)
	}
	if _, ok := m.Records[record.ID]; !ok {
		return nil, domain.ErrAttendanceNotFound
	}
	record.UpdatedAt = time.Now()
	m.Records[record.ID] = record
	m.ByDay[dayKey(record.ClassID, record.Date)] = record
	return record, nil
}

// Search retrieves a filtered page of attendance records
func (m *MockAttendanceRepository) Search(filters *domain.AttendanceFilters) (*domain.PaginatedAttendance, error) {
	if m.SearchFn != nil {
		return m.SearchFn(filters)
	}
	page, pageSize := domain.NormalizePage(filters.Page, filters.PageSize)
	var matched []*domain.AttendanceRecord
	for _, record := range m.Records {
		if filters.ClassID != nil && record.ClassID != *filters.ClassID {
			continue
		}
		if filters.Date != nil && !record.Date.Equal(*filters.Date) {
			continue
		}
		if filters.StudentID != nil {
			if _, ok := record.StatusOf(*filters.StudentID); !ok {
				continue
			}
		}
		matched = append(matched, record)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.After(matched[j].Date) })
	return &domain.PaginatedAttendance{
		Data:       paginate(matched, page, pageSize),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int64(len(matched)),
		TotalPages: domain.TotalPages(int64(len(matched)), pageSize),
	}, nil
}

// AddRecord adds an attendance record to the mock repository (helper for tests)
func (m *MockAttendanceRepository) AddRecord(record *domain.AttendanceRecord) {
	m.Records[record.ID] = record
	m.ByDay[dayKey(record.ClassID, record.Date)] = record
}

type studentPeriodKey struct {
	StudentID uuid.UUID
	Period    string
}

// MockTuitionFeeRepository is a mock implementation of domain.TuitionFeeRepository
type MockTuitionFeeRepository struct {
	Fees     map[uuid.UUID]*domain.TuitionFee
	ByPeriod map[studentPeriodKey]*domain.TuitionFee
	CreateFn func(fee *domain.TuitionFee) (*domain.TuitionFee, error)
	UpdateFn func(fee *domain.TuitionFee) (*domain.TuitionFee, error)
	SearchFn func(filters *domain.TuitionFeeFilters) (*domain.PaginatedTuitionFees, error)
}

// NewMockTuitionFeeRepository creates a new MockTuitionFeeRepository
func NewMockTuitionFeeRepository() *MockTuitionFeeRepository {
	return &MockTuitionFeeRepository{
		Fees:     make(map[uuid.UUID]*domain.TuitionFee),
		ByPeriod: make(map[studentPeriodKey]*domain.TuitionFee),
	}
}

func periodKey(studentID uuid.UUID, period time.Time) studentPeriodKey {
	return studentPeriodKey{StudentID: studentID, Period: period.Format("2006-01")}
}

// CreateTx creates a new tuition fee; the mock ignores tx
func (m *MockTuitionFeeRepository) CreateTx(tx any, fee *domain.TuitionFee) (*domain.TuitionFee, error) {
	if m.CreateFn != nil {
		return m.CreateFn(fee)
	}
	if _, ok := m.ByPeriod[periodKey(fee.StudentID, fee.Period)]; ok {
		return nil, domain.ErrTuitionFeeAlreadyExists
	}
	fee.ID = uuid.New()
	fee.CreatedAt = time.Now()
	fee.UpdatedAt = fee.CreatedAt
	m.Fees[fee.ID] = fee
	m.ByPeriod[periodKey(fee.StudentID, fee.Period)] = fee
	return fee, nil
}

// GetByID retrieves a tuition fee by ID
func (m *MockTuitionFeeRepository) GetByID(id uuid.UUID) (*domain.TuitionFee, error) {
	if fee, ok := m.Fees[id]; ok {
		return fee, nil
	}
	return nil, domain.ErrTuitionFeeNotFound
}

// GetByIDForUpdateTx retrieves a tuition fee by ID with a row lock; the mock ignores both
func (m *MockTuitionFeeRepository) GetByIDForUpdateTx(tx any, id uuid.UUID) (*domain.TuitionFee, error) {
	return m.GetByID(id)
}

// GetByStudentAndPeriodForUpdateTx retrieves the fee for a student and billing period
func (m *MockTuitionFeeRepository) GetByStudentAndPeriodForUpdateTx(tx any, studentID uuid.UUID, period time.Time) (*domain.TuitionFee, error) {
	if fee, ok := m.ByPeriod[periodKey(studentID, period)]; ok {
		return fee, nil
	}
	return nil, domain.ErrTuitionFeeNotFound
}

// UpdateTx updates a tuition fee; the mock ignores tx
func (m *MockTuitionFeeRepository) UpdateTx(tx any, fee *domain.TuitionFee) (*domain.TuitionFee, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(fee)
	}
	if _, ok := m.Fees[fee.ID]; !ok {
		return nil, domain.ErrTuitionFeeNotFound
	}
	fee.UpdatedAt = time.Now()
	m.Fees[fee.ID] = fee
	m.ByPeriod[periodKey(fee.StudentID, fee.Period)] = fee
	return fee, nil
}

// Search retrieves a filtered page of tuition fees
func (m *MockTuitionFeeRepository) Search(filters *domain.TuitionFeeFilters) (*domain.PaginatedTuitionFees, error) {
	if m.SearchFn != nil {
		return m.SearchFn(filters)
	}
	page, pageSize := domain.NormalizePage(filters.Page, filters.PageSize)
	var matched []*domain.TuitionFee
	for _, fee := range m.Fees {
		if filters.StudentID != nil && fee.StudentID != *filters.StudentID {
			continue
		}
		if filters.ClassID != nil && fee.ClassID != *filters.ClassID {
			continue
		}
		if filters.Period != nil && !fee.Period.Equal(*filters.Period) {
			continue
		}
		matched = append(matched, fee)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Period.After(matched[j].Period) })
	return &domain.PaginatedTuitionFees{
		Data:       paginate(matched, page, pageSize),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int64(len(matched)),
		TotalPages: domain.TotalPages(int64(len(matched)), pageSize),
	}, nil
}

// AddFee adds a tuition fee to the mock repository (helper for tests)
func (m *MockTuitionFeeRepository) AddFee(fee *domain.TuitionFee) {
	m.Fees[fee.ID] = fee
	m.ByPeriod[periodKey(fee.StudentID, fee.Period)] = fee
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments map[uuid.UUID]*domain.Payment
	// FeeStudents maps fee IDs to student IDs so ListByStudent can filter the
	// way the SQL join does.
	FeeStudents map[uuid.UUID]uuid.UUID
	FeeClasses  map[uuid.UUID]uuid.UUID
	CreateFn    func(payment *domain.Payment) (*domain.Payment, error)
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments:    make(map[uuid.UUID]*domain.Payment),
		FeeStudents: make(map[uuid.UUID]uuid.UUID),
		FeeClasses:  make(map[uuid.UUID]uuid.UUID),
	}
}

// CreateTx creates a new payment; the mock ignores tx
func (m *MockPaymentRepository) CreateTx(tx any, payment *domain.Payment) (*domain.Payment, error) {
	if m.CreateFn != nil {
		return m.CreateFn(payment)
	}
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	m.Payments[payment.ID] = payment
	return payment, nil
}

// GetByID retrieves a payment by ID
func (m *MockPaymentRepository) GetByID(id uuid.UUID) (*domain.Payment, error) {
	if payment, ok := m.Payments[id]; ok {
		return payment, nil
	}
	return nil, domain.ErrPaymentNotFound
}

// ListByStudent retrieves a page of a student's payment history, newest first
func (m *MockPaymentRepository) ListByStudent(filters *domain.PaymentFilters) (*domain.PaginatedPayments, error) {
	page, pageSize := domain.NormalizePage(filters.Page, filters.PageSize)
	var matched []*domain.Payment
	for _, payment := range m.Payments {
		if m.FeeStudents[payment.TuitionFeeID] != filters.StudentID {
			continue
		}
		if filters.ClassID != nil && m.FeeClasses[payment.TuitionFeeID] != *filters.ClassID {
			continue
		}
		matched = append(matched, payment)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return &domain.PaginatedPayments{
		Data:       paginate(matched, page, pageSize),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int64(len(matched)),
		TotalPages: domain.TotalPages(int64(len(matched)), pageSize),
	}, nil
}

// AddPayment adds a payment to the mock store (helper for tests)
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	m.Payments[payment.ID] = payment
}

// LinkFee registers the fee's student and class for history filtering (helper for tests)
func (m *MockPaymentRepository) LinkFee(feeID, studentID, classID uuid.UUID) {
	m.FeeStudents[feeID] = studentID
	m.FeeClasses[feeID] = classID
}

// MockTeacherPaymentRepository is a mock implementation of domain.TeacherPaymentRepository
type MockTeacherPaymentRepository struct {
	Payments map[uuid.UUID]*domain.TeacherPayment
	CreateFn func(payment *domain.TeacherPayment) (*domain.TeacherPayment, error)
	UpdateFn func(payment *domain.TeacherPayment) (*domain.TeacherPayment, error)
}

// NewMockTeacherPaymentRepository creates a new MockTeacherPaymentRepository
func NewMockTeacherPaymentRepository() *MockTeacherPaymentRepository {
	return &MockTeacherPaymentRepository{
		Payments: make(map[uuid.UUID]*domain.TeacherPayment),
	}
}

// CreateTx creates a new payroll entry; the mock ignores tx
func (m *MockTeacherPaymentRepository) CreateTx(tx any, payment *domain.TeacherPayment) (*domain.TeacherPayment, error) {
	if m.CreateFn != nil {
		return m.CreateFn(payment)
	}
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	m.Payments[payment.ID] = payment
	return payment, nil
}

// GetByID retrieves a payroll entry by ID
func (m *MockTeacherPaymentRepository) GetByID(id uuid.UUID) (*domain.TeacherPayment, error) {
	if payment, ok := m.Payments[id]; ok {
		return payment, nil
	}
	return nil, domain.ErrTeacherPaymentNotFound
}

// GetByIDForUpdateTx retrieves a payroll entry with a row lock; the mock ignores both
func (m *MockTeacherPaymentRepository) GetByIDForUpdateTx(tx any, id uuid.UUID) (*domain.TeacherPayment, error) {
	return m.GetByID(id)
}

// GetLatestForPeriodForUpdateTx retrieves the most recently created entry for a teacher and period
func (m *MockTeacherPaymentRepository) GetLatestForPeriodForUpdateTx(tx any, teacherID uuid.UUID, month, year int32) (*domain.TeacherPayment, error) {
	var latest *domain.TeacherPayment
	for _, payment := range m.Payments {
		if payment.TeacherID != teacherID || payment.Month != month || payment.Year != year {
			continue
		}
		if latest == nil || payment.CreatedAt.After(latest.CreatedAt) {
			latest = payment
		}
	}
	if latest == nil {
		return nil, domain.ErrTeacherPaymentNotFound
	}
	return latest, nil
}

// UpdateTx updates a payroll entry; the mock ignores tx
func (m *MockTeacherPaymentRepository) UpdateTx(tx any, payment *domain.TeacherPayment) (*domain.TeacherPayment, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(payment)
	}
	if _, ok := m.Payments[payment.ID]; !ok {
		return nil, domain.ErrTeacherPaymentNotFound
	}
	payment.UpdatedAt = time.Now()
	m.Payments[payment.ID] = payment
	return payment, nil
}

// Search retrieves a filtered page of payroll entries
func (m *MockTeacherPaymentRepository) Search(filters *domain.TeacherPaymentFilters) (*domain.PaginatedTeacherPayments, error) {
	page, pageSize := domain.NormalizePage(filters.Page, filters.PageSize)
	var matched []*domain.TeacherPayment
	for _, payment := range m.Payments {
		if filters.TeacherID != nil && payment.TeacherID != *filters.TeacherID {
			continue
		}
		if filters.Month != nil && filters.Year != nil {
			if payment.Month != *filters.Month || payment.Year != *filters.Year {
				continue
			}
		}
		if filters.Status != nil && payment.Status != *filters.Status {
			continue
		}
		matched = append(matched, payment)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return &domain.PaginatedTeacherPayments{
		Data:       paginate(matched, page, pageSize),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int64(len(matched)),
		TotalPages: domain.TotalPages(int64(len(matched)), pageSize),
	}, nil
}

// AddPayment adds a payroll entry to the mock repository (helper for tests)
func (m *MockTeacherPaymentRepository) AddPayment(payment *domain.TeacherPayment) {
	m.Payments[payment.ID] = payment
}

func paginate[T any](items []T, page, pageSize int32) []T {
	start := int((page - 1) * pageSize)
	if start >= len(items) {
		return []T{}
	}
	end := start + int(pageSize)
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
