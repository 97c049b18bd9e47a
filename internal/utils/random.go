package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/myfan-dev/myfan/console/internal/domain"
)

type japaneseName struct {
	kanji string
	kana  string
}

var commonSurnames = []japaneseName{
	{"佐藤", "サトウ"}, {"鈴木", "スズキ"}, {"高橋", "タカハシ"}, {"田中", "タナカ"}, {"伊藤", "イトウ"},
	{"渡辺", "ワタナベ"}, {"山本", "ヤマモト"}, {"中村", "ナカムラ"}, {"小林", "コバヤシ"}, {"加藤", "カトウ"},
	{"吉田", "ヨシダ"}, {"山田", "ヤマダ"}, {"佐々木", "ササキ"}, {"山口", "ヤマグチ"}, {"松本", "マツモト"},
}

var commonGivenNames = []japaneseName{
	{"太郎", "タロウ"}, {"花子", "ハナコ"}, {"翔", "ショウ"}, {"陽菜", "ヒナ"}, {"蓮", "レン"},
	{"結衣", "ユイ"}, {"大輝", "ダイキ"}, {"美咲", "ミサキ"}, {"健太", "ケンタ"}, {"さくら", "サクラ"},
	{"悠真", "ユウマ"}, {"葵", "アオイ"}, {"拓海", "タクミ"}, {"凛", "リン"}, {"一郎", "イチロウ"},
}

var prefectures = []string{"東京都", "神奈川県", "大阪府", "愛知県", "福岡県", "北海道", "京都府", "埼玉県"}

var streets = []string{"渋谷区道玄坂", "新宿区西新宿", "中央区銀座", "港区六本木", "横浜市西区", "大阪市北区梅田"}

var sexes = []domain.Sex{domain.SexMale, domain.SexFemale, domain.SexUnknown}

var bookingTitles = []string{"初診", "再診", "施術", "カウンセリング", "定期検診", "クリーニング"}

// 预约时长只取 15 分钟的整数倍，使其与时间格对齐
var bookingDurations = []int{15, 30, 45, 60, 90}

var digits = "0123456789"

func randomDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}

// GenerateRandomJapaneseName 返回姓名和对应的片假名读音
func GenerateRandomJapaneseName() (string, string) {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	given := commonGivenNames[rand.Intn(len(commonGivenNames))]
	return surname.kanji + " " + given.kanji, surname.kana + " " + given.kana
}

func GenerateRandomPhoneNumber() string {
	return fmt.Sprintf("090-%s-%s", randomDigits(4), randomDigits(4))
}

func GenerateRandomPostalCode() string {
	return fmt.Sprintf("%s-%s", randomDigits(3), randomDigits(4))
}

func GenerateRandomCustomer(emailDomainName string) domain.CustomerInput {
	name, ruby := GenerateRandomJapaneseName()
	return domain.CustomerInput{
		Name:        name,
		NameRuby:    ruby,
		MailAddress: fmt.Sprintf("patient%s@%s", randomDigits(6), emailDomainName),
		PhoneNumber: GenerateRandomPhoneNumber(),
		Sex:         sexes[rand.Intn(len(sexes))],
		PostalCode:  GenerateRandomPostalCode(),
		Prefecture:  prefectures[rand.Intn(len(prefectures))],
		Street:      streets[rand.Intn(len(streets))],
		Address:     fmt.Sprintf("%d-%d-%d", rand.Intn(5)+1, rand.Intn(20)+1, rand.Intn(30)+1),
	}
}

// GenerateRandomBooking 在 day 当天的营业时间（9 点到 19 点）内随机生成一个预约，
// 开始时间对齐到 15 分钟
func GenerateRandomBooking(day time.Time, customerID int64, staffIDs []int64) domain.BookingRequest {
	y, m, d := day.Date()
	slot := rand.Intn(10 * 4)
	from := time.Date(y, m, d, 9, 0, 0, 0, day.Location()).Add(time.Duration(slot*15) * time.Minute)
	duration := bookingDurations[rand.Intn(len(bookingDurations))]

	return domain.NewBookingRequest(
		customerID,
		bookingTitles[rand.Intn(len(bookingTitles))],
		from,
		duration,
		"",
		GenerateRandomSubset(staffIDs),
	)
}

// 使用 Fisher-Yates 洗牌算法来生成一个随机的非空子集
func GenerateRandomSubset(arr []int64) []int64 {
	if len(arr) == 0 {
		return []int64{}
	}

	arrCopy := append([]int64{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rand.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}
