// Package clock 提供 "HH:MM" 时钟字符串的分钟制运算。
//
// 班次时间窗是 [startTime, endTime) 的时钟区间，可能跨越午夜；
// 所有函数均为纯函数，非法输入统一返回 ErrInvalidClock。
package clock

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidClock 时间字符串格式非法（要求 24 小时制 HH:MM）
var ErrInvalidClock = errors.New("时间格式非法，应为 24 小时制 HH:MM")

const minutesPerDay = 24 * 60

// ToMinutes 将 "HH:MM" 转换为自 00:00 起的分钟偏移 [0, 1439]。
// 接受与原 API 校验一致的宽松小时位（"7:30" 与 "07:30" 等价）。
func ToMinutes(s string) (int, error) {
	h, m, err := parse(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// DurationMinutes 计算 [start, end) 窗口的分钟时长。
// end 早于 start 视为跨午夜班次，补偿 1440 分钟。
func DurationMinutes(start, end string) (int, error) {
	startMin, err := ToMinutes(start)
	if err != nil {
		return 0, fmt.Errorf("起始时间: %w", err)
	}
	endMin, err := ToMinutes(end)
	if err != nil {
		return 0, fmt.Errorf("结束时间: %w", err)
	}
	if endMin < startMin {
		endMin += minutesPerDay
	}
	return endMin - startMin, nil
}

// DurationHours 计算窗口时长（小时，保留两位小数）。
func DurationHours(start, end string) (float64, error) {
	minutes, err := DurationMinutes(start, end)
	if err != nil {
		return 0, err
	}
	return round2(float64(minutes) / 60), nil
}

// LateBy 判断签到是否迟到：签到分钟数严格大于排班开始分钟数才算迟到。
// 返回迟到分钟数（未迟到时钳制为 0）。
func LateBy(checkIn, scheduledStart string) (bool, int, error) {
	checkInMin, err := ToMinutes(checkIn)
	if err != nil {
		return false, 0, fmt.Errorf("签到时间: %w", err)
	}
	startMin, err := ToMinutes(scheduledStart)
	if err != nil {
		return false, 0, fmt.Errorf("排班开始时间: %w", err)
	}
	lateness := checkInMin - startMin
	if lateness <= 0 {
		return false, 0, nil
	}
	return true, lateness, nil
}

// EarlyBy 判断签退是否早退。
// 为了让跨午夜班次（如 22:00-06:00 班签退 05:30）比较正确，
// 双方时间低于正午时各补偿 1440 分钟，统一到 ≥12:00 的参照系再做差。
func EarlyBy(checkOut, scheduledEnd string) (bool, int, error) {
	checkOutMin, err := ToMinutes(checkOut)
	if err != nil {
		return false, 0, fmt.Errorf("签退时间: %w", err)
	}
	endMin, err := ToMinutes(scheduledEnd)
	if err != nil {
		return false, 0, fmt.Errorf("排班结束时间: %w", err)
	}
	if endMin < 12*60 {
		endMin += minutesPerDay
	}
	if checkOutMin < 12*60 {
		checkOutMin += minutesPerDay
	}
	early := endMin - checkOutMin
	if early <= 0 {
		return false, 0, nil
	}
	return true, early, nil
}

func parse(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidClock
	}
	hs, ms := parts[0], parts[1]
	if len(hs) < 1 || len(hs) > 2 || len(ms) != 2 {
		return 0, 0, ErrInvalidClock
	}
	hour, err = strconv.Atoi(hs)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrInvalidClock
	}
	minute, err = strconv.Atoi(ms)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidClock
	}
	return hour, minute, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
