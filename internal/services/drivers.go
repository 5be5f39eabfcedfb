package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rideaxis/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("a user with that username already exists")
	ErrEmailTaken         = errors.New("a user with that email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTerminalNotFound   = errors.New("terminal not found")
	ErrAdminNotFound      = errors.New("terminal admin not found")
)

const DefaultRejectionReason = "No reason provided"

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Address   string
	Sex       string
}

// checkUnique reports ErrUsernameTaken or ErrEmailTaken against drivers
// other than exceptID.
func checkUnique(db *gorm.DB, username, email string, exceptID uint) error {
	var count int64
	if err := db.Model(&models.Driver{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameTaken
	}
	if err := db.Model(&models.Driver{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", email, exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return nil
}

func RegisterDriver(db *gorm.DB, in RegisterInput) (*models.Driver, error) {
	if err := checkUnique(db, in.Username, in.Email, 0); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	driver := &models.Driver{
		Username:       in.Username,
		Email:          in.Email,
		PasswordHash:   hash,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Address:        in.Address,
		Sex:            in.Sex,
		ProfilePicture: models.DefaultProfilePicture,
		TerminalStatus: models.TerminalStatusPending,
		IsActive:       true,
		DateJoined:     time.Now(),
	}
	if err := db.Create(driver).Error; err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}
	return driver, nil
}

// AuthenticateDriver checks the credentials of an active driver and records
// the login.
func AuthenticateDriver(db *gorm.DB, username, password string) (*models.Driver, error) {
	var driver models.Driver
	err := db.Where("username = ? AND is_active = ?", username, true).First(&driver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(driver.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := db.Model(&driver).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	driver.LastLogin = &now
	return &driver, nil
}

// AuthenticateTerminalAdmin checks the credentials of an active terminal
// admin, loads their terminal and records the login.
func AuthenticateTerminalAdmin(db *gorm.DB, username, password string) (*models.TerminalAdmin, error) {
	var admin models.TerminalAdmin
	err := db.Preload("Terminal").Where("username = ? AND is_active = ?", username, true).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(admin.PasswordHash, password) || admin.Terminal == nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := db.Model(&admin).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	admin.LastLogin = &now
	return &admin, nil
}

func GetDriver(db *gorm.DB, driverID uint) (*models.Driver, error) {
	var driver models.Driver
	err := db.Preload("AssignedTerminal").First(&driver, driverID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDriverNotFound
	}
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func GetTerminalAdmin(db *gorm.DB, adminID uint) (*models.TerminalAdmin, error) {
	var admin models.TerminalAdmin
	err := db.Preload("Terminal").First(&admin, adminID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	if admin.Terminal == nil {
		return nil, ErrTerminalNotFound
	}
	return &admin, nil
}

type ProfileInput struct {
	FirstName          string
	LastName           string
	Email              string
	Username           string
	Address            string
	Sex                string
	AssignedTerminalID *uint
}

// UpdateProfile saves the driver's own details. Picking a different
// terminal, or clearing it, resets the approval to pending. Approved drivers
// keep their terminal whatever was submitted. terminalChanged reports a
// reset.
func UpdateProfile(db *gorm.DB, driver *models.Driver, in ProfileInput) (terminalChanged bool, err error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := checkUnique(db, in.Username, in.Email, driver.ID); err != nil {
		return false, err
	}

	updates := map[string]interface{}{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"email":      in.Email,
		"username":   in.Username,
		"address":    in.Address,
		"sex":        in.Sex,
	}

	if driver.TerminalStatus != models.TerminalStatusApproved && !sameTerminal(driver.AssignedTerminalID, in.AssignedTerminalID) {
		if in.AssignedTerminalID != nil {
			var terminal models.Terminal
			err := db.Where("id = ? AND is_active = ?", *in.AssignedTerminalID, true).First(&terminal).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, ErrTerminalNotFound
			}
			if err != nil {
				return false, err
			}
		}
		if in.AssignedTerminalID != nil {
			updates["assigned_terminal_id"] = *in.AssignedTerminalID
		} else {
			updates["assigned_terminal_id"] = nil
		}
		updates["terminal_status"] = models.TerminalStatusPending
		updates["terminal_rejection_reason"] = ""
		terminalChanged = true
	}

	// Updating through the loaded driver would write the preloaded terminal
	// back over assigned_terminal_id.
	if err := db.Model(&models.Driver{}).Where("id = ?", driver.ID).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("update profile: %w", err)
	}

	driver.FirstName = in.FirstName
	driver.LastName = in.LastName
	driver.Email = in.Email
	driver.Username = in.Username
	driver.Address = in.Address
	driver.Sex = in.Sex
	if terminalChanged {
		driver.AssignedTerminalID = in.AssignedTerminalID
		driver.AssignedTerminal = nil
		driver.TerminalStatus = models.TerminalStatusPending
		driver.TerminalRejectionReason = ""
	}
	return terminalChanged, nil
}

func sameTerminal(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func UpdateProfilePicture(db *gorm.DB, driverID uint, path string) error {
	return db.Model(&models.Driver{}).Where("id = ?", driverID).Update("profile_picture", path).Error
}

func pendingDriver(db *gorm.DB, terminalID, driverID uint) (*models.Driver, error) {
	var driver models.Driver
	err := db.Where("id = ? AND assigned_terminal_id = ? AND terminal_status = ?",
		driverID, terminalID, models.TerminalStatusPending).
		First(&driver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDriverNotFound
	}
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// ApproveDriver accepts a pending driver at the terminal.
func ApproveDriver(db *gorm.DB, terminalID, driverID uint) (*models.Driver, error) {
	driver, err := pendingDriver(db, terminalID, driverID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(driver).Updates(map[string]interface{}{
		"terminal_status":           models.TerminalStatusApproved,
		"terminal_rejection_reason": "",
	}).Error; err != nil {
		return nil, err
	}
	driver.TerminalStatus = models.TerminalStatusApproved
	driver.TerminalRejectionReason = ""
	return driver, nil
}

// RejectDriver turns down a pending driver with a reason.
func RejectDriver(db *gorm.DB, terminalID, driverID uint, reason string) (*models.Driver, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectionReason
	}
	driver, err := pendingDriver(db, terminalID, driverID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(driver).Updates(map[string]interface{}{
		"terminal_status":           models.TerminalStatusRejected,
		"terminal_rejection_reason": reason,
	}).Error; err != nil {
		return nil, err
	}
	driver.TerminalStatus = models.TerminalStatusRejected
	driver.TerminalRejectionReason = reason
	return driver, nil
}

// TerminalDriver loads a driver registered at the terminal, whatever the
// approval status.
func TerminalDriver(db *gorm.DB, terminalID, driverID uint) (*models.Driver, error) {
	var driver models.Driver
	err := db.Where("id = ? AND assigned_terminal_id = ?", driverID, terminalID).First(&driver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDriverNotFound
	}
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func ToggleDriverActive(db *gorm.DB, terminalID, driverID uint) (*models.Driver, error) {
	driver, err := TerminalDriver(db, terminalID, driverID)
	if err != nil {
		return nil, err
	}
	next := !driver.IsActive
	if err := db.Model(&models.Driver{}).Where("id = ?", driver.ID).Update("is_active", next).Error; err != nil {
		return nil, err
	}
	driver.IsActive = next
	return driver, nil
}

// DeleteDriver removes the account with its ratings and every ride it drove
// or was assigned.
func DeleteDriver(db *gorm.DB, driverID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var rideIDs []uint
		if err := tx.Model(&models.Ride{}).
			Where("driver_id = ? OR assigned_driver_id = ?", driverID, driverID).
			Pluck("id", &rideIDs).Error; err != nil {
			return err
		}
		for _, id := range rideIDs {
			if err := DeleteRideCascade(tx, id); err != nil {
				return err
			}
		}
		if err := tx.Where("driver_id = ?", driverID).Delete(&models.DriverRating{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Driver{}, driverID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDriverNotFound
		}
		return nil
	})
}

// TerminalDrivers lists drivers at the terminal with the given approval
// status. Pending drivers come newest first, the others by name.
func TerminalDrivers(db *gorm.DB, terminalID uint, status models.TerminalStatus) ([]models.Driver, error) {
	q := db.Where("assigned_terminal_id = ? AND terminal_status = ?", terminalID, status)
	if status == models.TerminalStatusPending {
		q = q.Order("date_joined DESC, id DESC")
	} else {
		q = q.Order("first_name, last_name, username")
	}
	var drivers []models.Driver
	err := q.Find(&drivers).Error
	return drivers, err
}

// DriverSummaries builds roster rows: rides each driver ran from the
// terminal and their average rating.
func DriverSummaries(db *gorm.DB, terminal *models.Terminal, drivers []models.Driver) ([]models.DriverSummary, error) {
	ids := make([]uint, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}
	ratings, err := AverageRatings(db, ids)
	if err != nil {
		return nil, err
	}

	rideCounts := make(map[uint]int64, len(drivers))
	if len(ids) > 0 {
		var rows []struct {
			DriverID uint
			Count    int64
		}
		if err := db.Model(&models.Ride{}).
			Select("driver_id, COUNT(*) AS count").
			Where("start_point = ? AND driver_id IN ?", terminal.Code, ids).
			Group("driver_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			rideCounts[r.DriverID] = r.Count
		}
	}

	out := make([]models.DriverSummary, 0, len(drivers))
	for i := range drivers {
		d := &drivers[i]
		out = append(out, models.DriverSummary{
			Driver:    models.NewDriverResponse(d),
			RideCount: rideCounts[d.ID],
			AvgRating: Round(ratings[d.ID], 2),
		})
	}
	return out, nil
}

type TerminalInput struct {
	Name        string
	Code        string
	Address     string
	PhoneNumber string
}

// EnsureTerminal returns the terminal with the code, creating it when
// missing.
func EnsureTerminal(db *gorm.DB, in TerminalInput) (*models.Terminal, bool, error) {
	var terminal models.Terminal
	err := db.Where("code = ?", in.Code).First(&terminal).Error
	if err == nil {
		return &terminal, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	terminal = models.Terminal{
		Name:        in.Name,
		Code:        in.Code,
		Address:     in.Address,
		PhoneNumber: in.PhoneNumber,
		IsActive:    true,
	}
	if err := db.Create(&terminal).Error; err != nil {
		return nil, false, fmt.Errorf("create terminal: %w", err)
	}
	return &terminal, true, nil
}

type TerminalAdminInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

var ErrTerminalHasAdmin = errors.New("terminal already has an admin")

// CreateTerminalAdmin creates the single admin account of a terminal.
func CreateTerminalAdmin(db *gorm.DB, terminal *models.Terminal, in TerminalAdminInput) (*models.TerminalAdmin, error) {
	var count int64
	if err := db.Model(&models.TerminalAdmin{}).Where("terminal_id = ?", terminal.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrTerminalHasAdmin
	}
	if err := db.Model(&models.TerminalAdmin{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	terminalID := terminal.ID
	admin := &models.TerminalAdmin{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		TerminalID:   &terminalID,
		PhoneNumber:  in.PhoneNumber,
		IsActive:     true,
	}
	if err := db.Omit("Terminal").Create(admin).Error; err != nil {
		return nil, fmt.Errorf("create terminal admin: %w", err)
	}
	admin.Terminal = terminal
	return admin, nil
}
