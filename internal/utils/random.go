package utils

import (
	"fmt"
	"math/rand"

	"github.com/airport-ops-dev/roster-manager/backend/internal/domain"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleStaff,
	domain.RoleSupervisor,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

var unitNames = []string{
	"值机服务科", "行李查询科", "安检协调科", "机坪运行科",
	"贵宾服务科", "中转服务科", "航班信息科", "旅客引导科",
}

func GenerateRandomUnit() *domain.Unit {
	terminalID := int64(rand.Intn(3) + 1)

	return &domain.Unit{
		Name:                 unitNames[rand.Intn(len(unitNames))] + GenerateRandomID(2, 2),
		TerminalID:           &terminalID,
		RequiresSwapApproval: rand.Intn(2) == 0,
	}
}

// GenerateStandardShiftDefinitions 生成三班倒的标准班次
func GenerateStandardShiftDefinitions(unitID int64) []*domain.ShiftDefinition {
	return []*domain.ShiftDefinition{
		{UnitID: unitID, Name: "早班", StartTime: "06:00", EndTime: "14:00", DurationHours: 8, Color: "#4CAF50"},
		{UnitID: unitID, Name: "中班", StartTime: "14:00", EndTime: "22:00", DurationHours: 8, Color: "#FF9800"},
		{UnitID: unitID, Name: "夜班", StartTime: "22:00", EndTime: "06:00", DurationHours: 8, Color: "#3F51B5"},
	}
}

// GenerateRandomRosterTemplate 基于一组班次定义生成随机轮换模板。
// 周期为每个班次各出现一到两天，最后跟一到两天 OFF
func GenerateRandomRosterTemplate(shiftDefinitions []domain.ShiftDefinition) *domain.RosterTemplate {
	cycle := []string{}
	for _, sd := range shiftDefinitions {
		repeats := rand.Intn(2) + 1
		for i := 0; i < repeats; i++ {
			cycle = append(cycle, sd.Name)
		}
	}
	offDays := rand.Intn(2) + 1
	for i := 0; i < offDays; i++ {
		cycle = append(cycle, domain.RestShiftName)
	}

	return &domain.RosterTemplate{
		Name:             "轮换模板" + GenerateRandomID(3, 3),
		Type:             "rotating",
		MinStaffPerShift: int32(rand.Intn(3) + 1),
		IdealTeamSize:    int32(rand.Intn(4) + 2),
		ShiftDefinitions: shiftDefinitions,
		RotationCycle:    cycle,
	}
}
